package documents

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/adrg/frontmatter"
	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"gopkg.in/yaml.v3"
)

// FileExtensions lists the exported post files the file store reads.
var FileExtensions = []string{".html", ".htm", ".md"}

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// FrontMatter is the header of an exported post file.
type FrontMatter struct {
	ID     int64  `yaml:"id"`
	Title  string `yaml:"title"`
	Type   string `yaml:"type"`
	Status string `yaml:"status"`
}

// FileStore treats a directory of exported posts as a document store. Each file
// starts with a YAML front matter block; the remainder is the post content.
// Writes keep the front matter bytes untouched.
type FileStore struct {
	dir    string
	filter Filter

	mu    sync.Mutex
	paths map[int64]string
}

var _ interfaces.DocumentStore = (*FileStore)(nil)

// NewFileStore constructs a store over dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:    dir,
		filter: DefaultFilter(),
		paths:  map[int64]string{},
	}
}

type fileEntry struct {
	path   string
	header []byte
	doc    interfaces.Document
}

// FetchIDs scans the directory and returns matching ids in ascending order.
func (s *FileStore) FetchIDs(ctx context.Context, query interfaces.DocumentQuery) ([]int64, error) {
	entries, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(entries))
	for id, entry := range entries {
		if id <= query.After || !s.filter.Match(entry.doc, query) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if limit := normalizeLimit(query.Limit); len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Fetch reads the document file.
func (s *FileStore) Fetch(ctx context.Context, id int64) (*interfaces.Document, error) {
	entry, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entry.doc, nil
}

// Write replaces the body of the document file.
func (s *FileStore) Write(ctx context.Context, id int64, content string) error {
	entry, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Write(entry.header)
	buf.WriteString(content)
	return writeFileAtomic(entry.path, buf.Bytes())
}

// Title returns the front matter title.
func (s *FileStore) Title(ctx context.Context, id int64) (string, error) {
	entry, err := s.lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return entry.doc.Title, nil
}

// Create writes a new post file named after the document id.
func (s *FileStore) Create(doc interfaces.Document) (string, error) {
	header, err := yaml.Marshal(FrontMatter{
		ID:     doc.ID,
		Title:  doc.Title,
		Type:   doc.PostType,
		Status: doc.Status,
	})
	if err != nil {
		return "", fmt.Errorf("documents: encode front matter: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("documents: create dir: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n")
	buf.WriteString(doc.Content)

	path := filepath.Join(s.dir, strconv.FormatInt(doc.ID, 10)+".html")
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.paths[doc.ID] = path
	s.mu.Unlock()
	return path, nil
}

func (s *FileStore) lookup(ctx context.Context, id int64) (*fileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	path, ok := s.paths[id]
	s.mu.Unlock()
	if ok {
		entry, err := readEntry(path)
		if err == nil && entry.doc.ID == id {
			return entry, nil
		}
	}
	entries, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
	}
	return entry, nil
}

func (s *FileStore) scan(ctx context.Context) (map[int64]*fileEntry, error) {
	entries := map[int64]*fileEntry{}
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(path) {
			return nil
		}
		entry, err := readEntry(path)
		if err != nil || entry.doc.ID <= 0 {
			return nil
		}
		if _, dup := entries[entry.doc.ID]; !dup {
			entries[entry.doc.ID] = entry
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("documents: scan %s: %w", s.dir, err)
	}

	paths := make(map[int64]string, len(entries))
	for id, entry := range entries {
		paths[id] = entry.path
	}
	s.mu.Lock()
	s.paths = paths
	s.mu.Unlock()
	return entries, nil
}

func readEntry(path string) (*fileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta FrontMatter
	body, err := frontmatter.MustParse(bytes.NewReader(data), &meta, yamlFormat)
	if err != nil {
		return nil, err
	}
	if meta.ID == 0 {
		meta.ID = idFromFilename(path)
	}
	header := data[:len(data)-len(body)]
	return &fileEntry{
		path:   path,
		header: header,
		doc: interfaces.Document{
			ID:       meta.ID,
			Title:    meta.Title,
			PostType: meta.Type,
			Status:   meta.Status,
			Content:  string(body),
		},
	}, nil
}

func idFromFilename(path string) int64 {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	end := 0
	for end < len(base) && base[end] >= '0' && base[end] <= '9' {
		end++
	}
	id, err := strconv.ParseInt(base[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(FileExtensions, ext)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".faqmigrate-*")
	if err != nil {
		return fmt.Errorf("documents: write %s: %w", path, err)
	}
	name := tmp.Name()
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("documents: write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("documents: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("documents: write %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("documents: write %s: %w", path, err)
	}
	return nil
}
