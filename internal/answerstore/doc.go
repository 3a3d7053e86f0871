// Package answerstore provides the session-wide answer table.
//
// # Purpose
//
// The store holds one value per compiled question id plus the participant
// id and the elapsed time, and writes them as a two-row table once the
// session ends:
//
//	,01-01-01,01-01-02,...,timer
//	response,Yes,3,...,754.2
//
// # Characteristics
//
//   - **Overwriting:** Set replaces the previous value of a column, so
//     flushing a screen twice leaves the same row.
//   - **Closed columns:** only the compiled ids and "timer" exist; writing
//     any other column is an error.
//   - **Thread-Safe:** guarded by a RWMutex; the navigation controller is the
//     only writer, progress reporting may read concurrently.
//
// # Formats
//
// Tables are written and read by a Codec: CSV through encoding/csv, XLSX
// through excelize. The merge command reads tables back with the same
// codecs.
package answerstore
