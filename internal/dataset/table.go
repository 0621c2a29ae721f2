// Package dataset loads the crime, poverty and rental registry tables and
// cleans them into model records ready for the spatial join.
package dataset

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/fetcher"
)

// Table is a raw tabular dataset: a header and string cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable builds a Table and its case-insensitive column index.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{Name: name, Header: header, Rows: rows, index: make(map[string]int, len(header))}
	fold := cases.Fold()
	for i, h := range header {
		key := fold.String(strings.TrimSpace(h))
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// Col returns the position of the named column, matched case-insensitively,
// or -1 when absent.
func (t *Table) Col(name string) int {
	if i, ok := t.index[cases.Fold().String(name)]; ok {
		return i
	}
	return -1
}

// RequireCols returns the positions of every named column, or an error
// listing the missing ones.
func (t *Table) RequireCols(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	var missing []string
	for i, n := range names {
		idx[i] = t.Col(n)
		if idx[i] < 0 {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("dataset: %s is missing required columns %s", t.Name, strings.Join(missing, ", "))
	}
	return idx, nil
}

// Cell returns row[col], or "" when the row is short or col is -1.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Loader reads tables from local paths or URLs.
type Loader struct {
	fetcher fetcher.Fetcher
	tempDir string
}

// NewLoader creates a Loader. f may be nil when every source is local.
func NewLoader(f fetcher.Fetcher, tempDir string) *Loader {
	return &Loader{fetcher: f, tempDir: tempDir}
}

// Localize resolves src to a local file, downloading URLs.
func (l *Loader) Localize(ctx context.Context, src string) (string, error) {
	if fetcher.IsRemote(src) && l.fetcher == nil {
		return "", eris.Errorf("dataset: %s is remote but no fetcher is configured", src)
	}
	return fetcher.Localize(ctx, l.fetcher, src, l.tempDir)
}

// LoadTable reads a .csv or .xlsx table.
func (l *Loader) LoadTable(ctx context.Context, name, src string) (*Table, error) {
	path, err := l.Localize(ctx, src)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: locate %s", name)
	}

	var header []string
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, rows, err = fetcher.ReadXLSXFile(path)
	case ".csv", ".txt", "":
		header, rows, err = fetcher.ReadCSVFile(ctx, path)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q for %s", filepath.Ext(path), name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", name)
	}

	zap.L().Info("dataset: loaded table",
		zap.String("dataset", name),
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(header)),
	)
	return NewTable(name, header, rows), nil
}
