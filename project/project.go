// Package project stores multi-file sandbox projects and moves them in and
// out of zip archives and directories.
package project

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"sharpbox/errors"
)

// MetadataFile is the archive entry holding project metadata
const MetadataFile = "project.json"

// DefaultFileName is created when a project has no files
const DefaultFileName = "Program.cs"

// FileKind tells files and folders apart
type FileKind string

const (
	KindFile   FileKind = "file"
	KindFolder FileKind = "folder"
)

// File is a file or folder in a project tree
type File struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parentId,omitempty"`
	Name     string   `json:"name"`
	Kind     FileKind `json:"type"`
	Content  string   `json:"content,omitempty"`
	Language string   `json:"language"`
}

// IsSource reports whether the file holds program text
func (f File) IsSource() bool {
	return f.Kind == KindFile && strings.HasSuffix(f.Name, ".cs")
}

// Project is a named set of files with one active file
type Project struct {
	ID           string
	Name         string
	Created      int64
	LastModified int64
	ActiveFileID string
	Files        []File
	Notes        string
}

// Metadata is the content of project.json
type Metadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Created      int64  `json:"created"`
	ActiveFileID string `json:"activeFileId"`
	Notes        string `json:"notes"`
}

// Metadata returns the project.json record for p
func (p *Project) Metadata() Metadata {
	return Metadata{
		ID:           p.ID,
		Name:         p.Name,
		Created:      p.Created,
		ActiveFileID: p.ActiveFileID,
		Notes:        p.Notes,
	}
}

// New creates a single-file project
func New(name, source string) *Project {
	b := newBuilder(Metadata{Name: name})
	b.addFile(DefaultFileName, source)
	return b.finish(name)
}

// fileID derives a stable identifier from the project id and file path so
// that a project survives an export and import round trip with its active
// file intact.
func fileID(projectID, filePath string) string {
	namespace, err := uuid.Parse(projectID)
	if err != nil {
		namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(projectID))
	}
	return uuid.NewSHA1(namespace, []byte(filePath)).String()
}

func languageFor(name string) string {
	if strings.HasSuffix(name, ".cs") {
		return "csharp"
	}
	return "plaintext"
}

// Path returns the slash separated path of f inside the project
func (p *Project) Path(f File) string {
	parts := []string{f.Name}
	parent := f.ParentID
	for seen := 0; parent != "" && seen < len(p.Files); seen++ {
		folder, ok := p.byID(parent)
		if !ok {
			break
		}
		parts = append([]string{folder.Name}, parts...)
		parent = folder.ParentID
	}
	return path.Join(parts...)
}

func (p *Project) byID(id string) (File, bool) {
	for _, f := range p.Files {
		if f.ID == id {
			return f, true
		}
	}
	return File{}, false
}

// FileByPath finds a file by its project path
func (p *Project) FileByPath(filePath string) (File, bool) {
	for _, f := range p.Files {
		if f.Kind == KindFile && p.Path(f) == filePath {
			return f, true
		}
	}
	return File{}, false
}

// ActiveFile returns the active file, or the first source file when the
// active id does not name a file.
func (p *Project) ActiveFile() (File, bool) {
	if f, ok := p.byID(p.ActiveFileID); ok && f.Kind == KindFile {
		return f, true
	}
	for _, f := range p.Files {
		if f.IsSource() {
			return f, true
		}
	}
	for _, f := range p.Files {
		if f.Kind == KindFile {
			return f, true
		}
	}
	return File{}, false
}

// ActiveSource returns the program text of the active file
func (p *Project) ActiveSource() (string, error) {
	f, ok := p.ActiveFile()
	if !ok {
		return "", errors.NewRuntimeError("PROJECT_EMPTY", fmt.Sprintf("project %q has no files", p.Name))
	}
	return f.Content, nil
}

// SetActiveSource replaces the content of the active file
func (p *Project) SetActiveSource(source string) error {
	active, ok := p.ActiveFile()
	if !ok {
		return errors.NewRuntimeError("PROJECT_EMPTY", fmt.Sprintf("project %q has no files", p.Name))
	}
	for i := range p.Files {
		if p.Files[i].ID == active.ID {
			p.Files[i].Content = source
		}
	}
	p.ActiveFileID = active.ID
	p.LastModified = time.Now().UnixMilli()
	return nil
}

// SetActive marks the file at filePath as active
func (p *Project) SetActive(filePath string) error {
	f, ok := p.FileByPath(filePath)
	if !ok {
		return errors.NewRuntimeError("PROJECT_FILE_NOT_FOUND", fmt.Sprintf("no file %q in project", filePath))
	}
	p.ActiveFileID = f.ID
	return nil
}

// builder assembles a project from flat paths, creating parent folders
// on demand.
type builder struct {
	meta    Metadata
	files   []File
	folders map[string]string
}

func newBuilder(meta Metadata) *builder {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	return &builder{meta: meta, folders: make(map[string]string)}
}

func (b *builder) folder(dir string) string {
	if dir == "" || dir == "." {
		return ""
	}
	if id, ok := b.folders[dir]; ok {
		return id
	}
	parent := b.folder(path.Dir(dir))
	id := fileID(b.meta.ID, dir+"/")
	b.folders[dir] = id
	b.files = append(b.files, File{
		ID:       id,
		ParentID: parent,
		Name:     path.Base(dir),
		Kind:     KindFolder,
		Language: "plaintext",
	})
	return id
}

func (b *builder) addFile(filePath, content string) {
	filePath = path.Clean(strings.TrimPrefix(filePath, "/"))
	b.files = append(b.files, File{
		ID:       fileID(b.meta.ID, filePath),
		ParentID: b.folder(path.Dir(filePath)),
		Name:     path.Base(filePath),
		Kind:     KindFile,
		Content:  content,
		Language: languageFor(filePath),
	})
}

// finish returns the project. fallbackName is used when the metadata
// carries no name.
func (b *builder) finish(fallbackName string) *Project {
	hasFile := false
	for _, f := range b.files {
		if f.Kind == KindFile {
			hasFile = true
			break
		}
	}
	if !hasFile {
		b.addFile(DefaultFileName, "")
	}

	sort.SliceStable(b.files, func(i, j int) bool {
		return b.files[i].Kind == KindFolder && b.files[j].Kind == KindFile
	})

	now := time.Now().UnixMilli()
	p := &Project{
		ID:           b.meta.ID,
		Name:         b.meta.Name,
		Created:      b.meta.Created,
		LastModified: now,
		ActiveFileID: b.meta.ActiveFileID,
		Files:        b.files,
		Notes:        b.meta.Notes,
	}
	if p.Name == "" {
		p.Name = fallbackName
	}
	if p.Created == 0 {
		p.Created = now
	}
	if f, ok := p.ActiveFile(); ok && p.ActiveFileID != f.ID {
		p.ActiveFileID = f.ID
	}
	return p
}
