// Package docs serves the Markdown documents under DOCS_DIR: it lists them by
// slug and renders them to HTML.
package docs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/01moynul/renovation-mindmap/internal/mindmap"
	"github.com/01moynul/renovation-mindmap/internal/models"
)

var ErrNotFound = errors.New("document not found")

// Library reads documents from one directory.
type Library struct {
	dir string
	md  goldmark.Markdown
}

func NewLibrary(dir string) *Library {
	return &Library{
		dir: dir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// List returns the *.md files of the directory sorted by file name.
// Slugs are derived from the file name and made unique with a numeric suffix.
func (l *Library) List() ([]models.Doc, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	sort.Strings(paths)

	seen := make(map[string]int, len(paths))
	docs := make([]models.Doc, 0, len(paths))
	for _, p := range paths {
		title := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		s := slug.Make(title)
		if s == "" {
			s = "doc"
		}
		seen[s]++
		if n := seen[s]; n > 1 {
			s = s + "-" + strconv.Itoa(n)
		}
		docs = append(docs, models.Doc{Slug: s, Title: title, Path: p})
	}
	return docs, nil
}

// Find looks a document up by slug.
func (l *Library) Find(docSlug string) (models.Doc, error) {
	docs, err := l.List()
	if err != nil {
		return models.Doc{}, err
	}
	for _, d := range docs {
		if d.Slug == docSlug {
			return d, nil
		}
	}
	return models.Doc{}, ErrNotFound
}

// Read returns the raw Markdown of a document.
func (l *Library) Read(doc models.Doc) (string, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return "", fmt.Errorf("read doc %s: %w", doc.Slug, err)
	}
	text, err := mindmap.DecodeText(data)
	if err != nil {
		return "", fmt.Errorf("read doc %s: %w", doc.Slug, err)
	}
	return string(text), nil
}

// RenderHTML converts Markdown (GitHub flavoured) to HTML. Raw HTML in the
// source is dropped.
func (l *Library) RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := l.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
