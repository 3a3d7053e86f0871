// Package merge combines the per-participant response tables of an
// experiment into one table.
package merge

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strconv"

	"github.com/vk/palila/internal/answerstore"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/fsutil"
)

// OutputName is the file name, without extension, of the merged table.
const OutputName = "responses_table"

// Options configures Run.
type Options struct {
	// Dir is the experiment directory.
	Dir string
	// Format of the merged table; empty means csv.
	Format answerstore.Format
	// Rand shuffles the sessions. nil means a time-seeded source.
	Rand *rand.Rand
}

// Result describes a completed merge.
type Result struct {
	Path     string
	Sessions int
	Rows     int
	Columns  []string
}

// Run reads every table under <Dir>/responses, shuffles them, concatenates
// them on the union of their columns and writes the merged table next to
// the responses directory.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	codec, err := answerstore.CodecFor(opts.Format)
	if err != nil {
		return nil, err
	}
	responses := filepath.Join(opts.Dir, answerstore.ResponsesDir)
	paths, err := fsutil.FindFilesByExtension(responses, answerstore.Extension(answerstore.FormatCSV), answerstore.Extension(answerstore.FormatXLSX))
	if err != nil {
		return nil, fmt.Errorf("failed to list response tables in %s: %w", responses, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no response tables found in %s", responses)
	}
	logger.Debug("Merge: response tables found.", "count", len(paths))

	tables := make([]*answerstore.Table, 0, len(paths))
	for _, p := range paths {
		c, _ := answerstore.CodecForPath(p)
		t, err := c.Read(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		tables = append(tables, t)
	}

	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	r.Shuffle(len(tables), func(i, j int) { tables[i], tables[j] = tables[j], tables[i] })

	merged := Concat(tables)
	out := filepath.Join(opts.Dir, OutputName+answerstore.Extension(codec.Format()))
	if err := codec.Write(out, merged); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", out, err)
	}

	res := &Result{Path: out, Sessions: len(tables), Rows: len(merged.Rows), Columns: merged.Columns()}
	logger.Info("Response tables merged.", "path", out, "sessions", res.Sessions, "rows", res.Rows)
	return res, nil
}

// Concat joins tables on the union of their columns, in the order the
// columns are first seen, and numbers the rows from 1. Cells missing from a
// table are left empty.
func Concat(tables []*answerstore.Table) *answerstore.Table {
	var columns []string
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns() {
			if _, ok := pos[c]; ok {
				continue
			}
			pos[c] = len(columns)
			columns = append(columns, c)
		}
	}

	merged := &answerstore.Table{Header: append([]string{""}, columns...)}
	for _, t := range tables {
		cols := t.Columns()
		for _, row := range t.Rows {
			out := make([]string, len(columns)+1)
			out[0] = strconv.Itoa(len(merged.Rows) + 1)
			for i, c := range cols {
				if i+1 < len(row) {
					out[pos[c]+1] = row[i+1]
				}
			}
			merged.Rows = append(merged.Rows, out)
		}
	}
	return merged
}
