package answerstore

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TimerColumn is the last column of every session table.
const TimerColumn = "timer"

// ResponseRow is the index of the single data row of a session table.
const ResponseRow = "response"

// Table is a header row plus data rows. The first column is the row index
// and its header cell is empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// Columns returns the header without the index column.
func (t *Table) Columns() []string {
	if len(t.Header) == 0 {
		return nil
	}
	return t.Header[1:]
}

// normalize pads short rows with empty cells; spreadsheet readers drop
// trailing empty cells.
func (t *Table) normalize() {
	for i, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
}

// Format selects the table file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Codec writes and reads tables in one file format.
type Codec interface {
	Format() Format
	Write(path string, t *Table) error
	Read(path string) (*Table, error)
}

// CodecFor returns the codec of a format.
func CodecFor(f Format) (Codec, error) {
	switch Format(strings.ToLower(string(f))) {
	case FormatCSV, "":
		return csvCodec{}, nil
	case FormatXLSX:
		return xlsxCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported table format %q", f)
	}
}

// CodecForPath returns the codec matching a file extension.
func CodecForPath(path string) (Codec, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch Format(ext) {
	case FormatCSV, FormatXLSX:
		c, _ := CodecFor(Format(ext))
		return c, true
	default:
		return nil, false
	}
}

// Extension returns the file extension of a format, with the dot.
func Extension(f Format) string {
	if f == "" {
		f = FormatCSV
	}
	return "." + strings.ToLower(string(f))
}
