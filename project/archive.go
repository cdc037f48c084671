package project

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"sharpbox/errors"
)

// maxEntrySize bounds a single archive entry
const maxEntrySize = 8 << 20

var whitespaceRun = regexp.MustCompile(`\s+`)

// ArchiveName returns the file name ExportZipFile writes for p
func ArchiveName(p *Project) string {
	return whitespaceRun.ReplaceAllString(p.Name, "_") + ".zip"
}

// LoadZip reads a project archive from disk
func LoadZip(archivePath string) (*Project, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, errors.WrapError(err, "PROJECT_IO", "failed to open project archive")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.WrapError(err, "PROJECT_IO", "failed to stat project archive")
	}

	name := strings.TrimSuffix(filepath.Base(archivePath), ".zip")
	return LoadZipReader(f, info.Size(), name)
}

// LoadZipReader reads a project archive. fallbackName names the project
// when the archive has no metadata.
func LoadZipReader(r io.ReaderAt, size int64, fallbackName string) (*Project, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.WrapError(err, "PROJECT_FORMAT", "not a zip archive")
	}

	meta, root := readMetadata(zr)
	b := newBuilder(meta)

	for _, entry := range zr.File {
		rel, ok := relativeEntry(entry.Name, root)
		if !ok || (path.Base(rel) == MetadataFile && path.Dir(rel) == ".") {
			continue
		}

		if entry.FileInfo().IsDir() {
			b.folder(rel)
			continue
		}

		content, err := readEntry(entry)
		if err != nil {
			return nil, err
		}
		b.addFile(rel, content)
	}

	return b.finish(fallbackName), nil
}

// readMetadata returns the shallowest project.json and the folder holding
// it, which is treated as the archive root.
func readMetadata(zr *zip.Reader) (Metadata, string) {
	var found *zip.File
	for _, entry := range zr.File {
		if path.Base(entry.Name) != MetadataFile || entry.FileInfo().IsDir() {
			continue
		}
		if found == nil || strings.Count(entry.Name, "/") < strings.Count(found.Name, "/") {
			found = entry
		}
	}
	if found == nil {
		return Metadata{}, ""
	}

	root := path.Dir(found.Name)
	if root == "." {
		root = ""
	}

	var meta Metadata
	content, err := readEntry(found)
	if err != nil {
		return Metadata{}, root
	}
	// A damaged project.json is ignored, the files still load
	if err := json.Unmarshal([]byte(content), &meta); err != nil {
		return Metadata{}, root
	}
	return meta, root
}

// relativeEntry strips root from an entry name. Entries outside root or
// escaping it are rejected.
func relativeEntry(name, root string) (string, bool) {
	name = strings.TrimSuffix(name, "/")
	if root != "" {
		if !strings.HasPrefix(name, root+"/") {
			return "", false
		}
		name = strings.TrimPrefix(name, root+"/")
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", false
	}
	return cleaned, true
}

func readEntry(entry *zip.File) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", errors.WrapError(err, "PROJECT_FORMAT", fmt.Sprintf("failed to open %s", entry.Name))
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return "", errors.WrapError(err, "PROJECT_FORMAT", fmt.Sprintf("failed to read %s", entry.Name))
	}
	if len(data) > maxEntrySize {
		return "", errors.NewRuntimeError("PROJECT_FORMAT", fmt.Sprintf("%s is too large", entry.Name))
	}
	return string(data), nil
}

// ExportZip writes p as a zip archive with every file under a folder named
// after the project and the metadata in project.json.
func ExportZip(p *Project, w io.Writer) error {
	zw := zip.NewWriter(w)
	root := p.Name

	for _, f := range p.Files {
		entryPath := path.Join(root, p.Path(f))
		if f.Kind == KindFolder {
			if _, err := zw.Create(entryPath + "/"); err != nil {
				return errors.WrapError(err, "PROJECT_IO", "failed to write folder entry")
			}
			continue
		}
		fw, err := zw.Create(entryPath)
		if err != nil {
			return errors.WrapError(err, "PROJECT_IO", "failed to write file entry")
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return errors.WrapError(err, "PROJECT_IO", "failed to write file entry")
		}
	}

	meta, err := json.MarshalIndent(p.Metadata(), "", "  ")
	if err != nil {
		return errors.WrapError(err, "PROJECT_FORMAT", "failed to encode project metadata")
	}
	fw, err := zw.Create(path.Join(root, MetadataFile))
	if err != nil {
		return errors.WrapError(err, "PROJECT_IO", "failed to write metadata entry")
	}
	if _, err := fw.Write(meta); err != nil {
		return errors.WrapError(err, "PROJECT_IO", "failed to write metadata entry")
	}

	if err := zw.Close(); err != nil {
		return errors.WrapError(err, "PROJECT_IO", "failed to finish archive")
	}
	return nil
}

// ExportZipFile writes p into dir and returns the archive path
func ExportZipFile(p *Project, dir string) (string, error) {
	target := filepath.Join(dir, ArchiveName(p))
	f, err := os.Create(target)
	if err != nil {
		return "", errors.WrapError(err, "PROJECT_IO", "failed to create project archive")
	}

	if err := ExportZip(p, f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.WrapError(err, "PROJECT_IO", "failed to close project archive")
	}
	return target, nil
}

// LoadDir reads a project from a directory tree. Hidden entries are
// skipped; a project.json at the top level supplies the metadata.
func LoadDir(dir string) (*Project, error) {
	var meta Metadata
	if data, err := os.ReadFile(filepath.Join(dir, MetadataFile)); err == nil {
		// A damaged project.json is ignored, the files still load
		_ = json.Unmarshal(data, &meta)
	}

	b := newBuilder(meta)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			b.folder(rel)
			return nil
		}
		if rel == MetadataFile {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		b.addFile(rel, string(data))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, "PROJECT_IO", "failed to read project directory")
	}

	return b.finish(filepath.Base(dir)), nil
}
