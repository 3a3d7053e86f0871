package answerstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/fsutil"
)

// ResponsesDir is the folder inside the experiment directory that receives
// session tables.
const ResponsesDir = "responses"

// Options configures a Store.
type Options struct {
	// Format of the written table; empty means CSV.
	Format Format
	// Clock drives the timer; nil means time.Now.
	Clock Clock
}

// Store is the answer table of one session.
type Store struct {
	mu      sync.RWMutex
	dir     string
	columns []string
	index   map[string]int
	values  []string
	pid     string
	codec   Codec
	timer   *Timer
}

// New creates a store for the given experiment directory and columns. The
// timer column is appended automatically.
func New(experimentDir string, columns []string, opts Options) (*Store, error) {
	codec, err := CodecFor(opts.Format)
	if err != nil {
		return nil, err
	}
	s := &Store{
		dir:     filepath.Join(experimentDir, ResponsesDir),
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		values:  make([]string, len(columns)),
		codec:   codec,
		timer:   NewTimer(opts.Clock),
	}
	for i, c := range columns {
		if c == TimerColumn {
			return nil, fmt.Errorf("column %q is reserved", TimerColumn)
		}
		if _, dup := s.index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		s.index[c] = i
	}
	return s, nil
}

// Prepare creates the responses folder.
func (s *Store) Prepare() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}
	return nil
}

// Set overwrites the value of a column.
func (s *Store) Set(id, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("unknown answer column %q", id)
	}
	s.values[i] = value
	return nil
}

// Get returns the value of a column.
func (s *Store) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return "", false
	}
	return s.values[i], true
}

// SetParticipant sets the participant id, which names the output file.
func (s *Store) SetParticipant(pid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid = pid
}

// Participant returns the participant id, "" until it is known.
func (s *Store) Participant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pid
}

// Path returns the output file of the session, "" until the participant id
// is known.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path()
}

func (s *Store) path() string {
	if s.pid == "" {
		return ""
	}
	return filepath.Join(s.dir, s.pid+Extension(s.codec.Format()))
}

// Timer returns the elapsed-time timer of the session.
func (s *Store) Timer() *Timer {
	return s.timer
}

// Table returns the session table.
func (s *Store) Table() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	header := make([]string, 0, len(s.columns)+2)
	header = append(header, "")
	header = append(header, s.columns...)
	header = append(header, TimerColumn)

	row := make([]string, 0, len(s.values)+2)
	row = append(row, ResponseRow)
	row = append(row, s.values...)
	row = append(row, s.timer.Value())
	return &Table{Header: header, Rows: [][]string{row}}
}

// Persist writes the session table and returns the written path. An existing
// file is never overwritten; the id gets a numeric suffix instead.
func (s *Store) Persist(ctx context.Context) (string, error) {
	logger := ctxlog.FromContext(ctx)
	path := s.Path()
	if path == "" {
		return "", fmt.Errorf("cannot persist answers before the participant id is known")
	}
	if err := s.Prepare(); err != nil {
		return "", err
	}
	if fsutil.FileExists(path) {
		free := freePath(path)
		logger.Warn("Response file exists, writing to a new file.", "existing", path, "path", free)
		path = free
	}
	if err := s.codec.Write(path, s.Table()); err != nil {
		return "", err
	}
	logger.Info("Answers persisted.", "path", path, "participant", s.Participant())
	return path, nil
}

// freePath appends _1, _2, ... to the file name until it does not exist.
func freePath(path string) string {
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !fsutil.FileExists(candidate) {
			return candidate
		}
	}
}
