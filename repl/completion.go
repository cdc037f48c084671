package repl

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
)

// keywordCompletions are offered for program lines
var keywordCompletions = []string{
	"Console.WriteLine(", "Console.Write(", "Console.ReadLine()", "Console.ReadKey()",
	"Convert.ToInt32(", "Convert.ToDouble(", "int.Parse(", "double.Parse(",
	"Math.Max(", "Math.Min(", "Math.Abs(", "Math.Pow(", "Math.Sqrt(", "Math.Round(",
	"static void Main(string[] args)", "switch", "while", "for (", "if (", "else",
	"break;", "continue;", "return;", "string", "int", "double", "bool", "char", "var",
}

// listPaths completes file system paths for :load, :save and :export
func listPaths(line string) []string {
	fields := strings.Fields(line)
	prefix := ""
	if len(fields) > 1 {
		prefix = fields[len(fields)-1]
	}

	dir, base := filepath.Split(prefix)
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), base) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := dir + entry.Name()
		if entry.IsDir() {
			name += string(filepath.Separator)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCompleter builds the tab completer for console commands and program
// keywords.
func NewCompleter() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(":run"),
		readline.PcItem(":load", readline.PcItemDynamic(listPaths)),
		readline.PcItem(":list"),
		readline.PcItem(":undo"),
		readline.PcItem(":reset"),
		readline.PcItem(":save", readline.PcItemDynamic(listPaths)),
		readline.PcItem(":export", readline.PcItemDynamic(listPaths)),
		readline.PcItem(":runs"),
		readline.PcItem(":clean"),
		readline.PcItem(":stop"),
		readline.PcItem(":clear"),
		readline.PcItem(":help"),
		readline.PcItem(":quit"),
	}
	for _, keyword := range keywordCompletions {
		items = append(items, readline.PcItem(keyword))
	}

	return readline.NewPrefixCompleter(items...)
}
