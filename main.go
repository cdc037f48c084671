package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sharpbox/container"
	"sharpbox/repl"
)

const version = "0.1.0"

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file (.yaml, .json or .toml)")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		execFile    = flag.String("exec", "", "Run a program file in batch mode")
		projectPath = flag.String("project", "", "Run the active file of a project directory or .zip archive")
		transcript  = flag.String("transcript", "", "Write the run's messages to a .json or .yaml file")
		watchFile   = flag.Bool("watch", false, "Re-run the program file every time it is saved")
		verbose     = flag.Bool("verbose", false, "Print messages with timestamps and kinds")
		noColor     = flag.Bool("no-color", false, "Disable coloured output")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sharpbox v%s - C# sandbox console\n", version)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// A bare .cs argument runs in batch mode
	if args := flag.Args(); len(args) > 0 && *execFile == "" && strings.HasSuffix(args[0], ".cs") {
		*execFile = args[0]
	}

	configFilePath := *configPath
	if configFilePath == "" {
		configFilePath = os.Getenv("SHARPBOX_CONFIG")
	}
	if configFilePath == "" {
		configFilePath = findConfig()
	}

	cfg, err := LoadConfig(configFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Console.Verbose = true
	}
	if *noColor {
		cfg.Console.Colors = false
	}
	if *watchFile {
		cfg.Watch.AutoRun = true
	}

	c := container.New(cfg.ContainerOptions())
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var runErr error
	if *execFile != "" || *projectPath != "" {
		runErr = runBatch(c, cfg, BatchOptions{
			File:       *execFile,
			Project:    *projectPath,
			Transcript: *transcript,
			Watch:      cfg.Watch.AutoRun && *execFile != "",
			Verbose:    cfg.Console.Verbose,
			Colors:     cfg.Console.Colors,
		})
	} else {
		runErr = runConsole(c, cfg)
	}

	if err := c.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

// runBatch runs a file or project without the console
func runBatch(c *container.Container, cfg *Config, opts BatchOptions) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	serializers, err := c.Serializers()
	if err != nil {
		return err
	}
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := newBatchRunner(sess, serializers, logger, os.Stdin, os.Stdout, opts)
	if opts.Watch {
		return runner.Watch(ctx, opts.File, watchOptions(cfg)...)
	}

	source, err := loadBatchSource(opts)
	if err != nil {
		return err
	}
	return runner.Run(ctx, source)
}

// runConsole starts the interactive console
func runConsole(c *container.Container, cfg *Config) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	serializers, err := c.Serializers()
	if err != nil {
		return err
	}
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	console := repl.NewREPLWithConfig(repl.REPLConfig{
		Session:      sess,
		Serializers:  serializers,
		Logger:       logger,
		Verbose:      cfg.Console.Verbose,
		EnableColors: cfg.Console.Colors,
		PromptSymbol: cfg.Console.PromptSymbol,
		HistoryFile:  expandHome(cfg.Console.HistoryFile),
		HistorySize:  cfg.Console.HistorySize,
		ShowWelcome:  cfg.Console.ShowWelcome,
	})
	return console.Run()
}

// printHelp displays help information
func printHelp() {
	fmt.Println("sharpbox - C# sandbox console")
	fmt.Println()
	fmt.Println("Usage: sharpbox [options]")
	fmt.Println("Run a program: sharpbox <file.cs>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config <path>        Path to configuration file")
	fmt.Println("  -exec <file.cs>       Run a program file; stdin supplies Console.ReadLine input")
	fmt.Println("  -project <dir|zip>    Run the active file of a project")
	fmt.Println("  -transcript <file>    Write the run's messages (.json or .yaml)")
	fmt.Println("  -watch                Re-run the program file on every save")
	fmt.Println("  -verbose              Print messages with timestamps and kinds")
	fmt.Println("  -no-color             Disable coloured output")
	fmt.Println("  -version              Show version information")
	fmt.Println("  -help                 Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  sharpbox                              Start the console")
	fmt.Println("  echo Ada | sharpbox hello.cs          Run a program with scripted input")
	fmt.Println("  sharpbox -project demo.zip            Run a project archive")
	fmt.Println("  sharpbox -exec hello.cs -watch        Re-run hello.cs whenever it changes")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  Configuration files are searched in the following order:")
	fmt.Println("  1. Path specified by -config flag")
	fmt.Println("  2. Path specified by the SHARPBOX_CONFIG environment variable")
	fmt.Println("  3. Default locations: ~/.sharpbox/config.yaml, ./config.yaml")
}
