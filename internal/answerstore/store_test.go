package answerstore

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/testutil"
)

// stepClock returns start, start+step, start+2*step, ...
func stepClock(start time.Time, step time.Duration) Clock {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}

func TestStore_SetAndGet(t *testing.T) {
	s, err := New(t.TempDir(), []string{"a", "b"}, Options{})
	require.NoError(t, err)

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("a", "2"))
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "2", v, "set overwrites")

	assert.ErrorContains(t, s.Set("zzz", "1"), `unknown answer column "zzz"`)
	_, ok = s.Get("zzz")
	assert.False(t, ok)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(t.TempDir(), []string{"a", "a"}, Options{})
	assert.ErrorContains(t, err, "duplicate column")

	_, err = New(t.TempDir(), []string{TimerColumn}, Options{})
	assert.ErrorContains(t, err, "reserved")

	_, err = New(t.TempDir(), nil, Options{Format: "ods"})
	assert.ErrorContains(t, err, "unsupported table format")
}

func TestStore_Path(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil, Options{Format: FormatXLSX})
	require.NoError(t, err)
	assert.Empty(t, s.Path())

	s.SetParticipant("p01")
	assert.Equal(t, "p01", s.Participant())
	assert.Equal(t, filepath.Join(dir, "responses", "p01.xlsx"), s.Path())
}

func TestStore_Table(t *testing.T) {
	start := time.Date(2026, 10, 17, 9, 31, 0, 0, time.UTC)
	s, err := New(t.TempDir(), []string{"01-01-01", "01-01-02"}, Options{Clock: stepClock(start, 90*time.Second)})
	require.NoError(t, err)
	require.NoError(t, s.Set("01-01-01", "Yes"))

	assert.Equal(t, &Table{
		Header: []string{"", "01-01-01", "01-01-02", "timer"},
		Rows:   [][]string{{"response", "Yes", "", ""}},
	}, s.Table())

	s.Timer().Start()
	s.Timer().Stop()
	assert.Equal(t, "90", s.Table().Rows[0][3])
}

func TestStore_Persist(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			dir := t.TempDir()
			s, err := New(dir, []string{"main-questionnaire-01", "01-01-01"}, Options{Format: format})
			require.NoError(t, err)

			_, err = s.Persist(ctx)
			require.Error(t, err, "no participant yet")

			s.SetParticipant("p7")
			require.NoError(t, s.Set("01-01-01", "a;b"))
			path, err := s.Persist(ctx)
			require.NoError(t, err)
			assert.Equal(t, s.Path(), path)

			codec, ok := CodecForPath(path)
			require.True(t, ok)
			table, err := codec.Read(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"", "main-questionnaire-01", "01-01-01", "timer"}, table.Header)
			assert.Equal(t, [][]string{{"response", "", "a;b", ""}}, table.Rows)

			second, err := s.Persist(ctx)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "responses", "p7_1"+Extension(format)), second)
		})
	}
}

func TestCSVLayout(t *testing.T) {
	ctx, _ := testutil.Context(t)
	s, err := New(t.TempDir(), []string{"a", "b"}, Options{})
	require.NoError(t, err)
	s.SetParticipant("x")
	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "two, three"))

	path, err := s.Persist(ctx)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",a,b,timer\nresponse,1,\"two, three\",\n", string(raw))
}

func TestTimer(t *testing.T) {
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	timer := NewTimer(stepClock(start, 1500*time.Millisecond))

	assert.Equal(t, "", timer.Value())
	assert.False(t, timer.Stop(), "stopping a stopped timer is a no-op")
	assert.True(t, timer.Start())
	assert.False(t, timer.Start(), "starting a running timer is a no-op")
	assert.True(t, timer.Running())
	assert.True(t, timer.Stop())
	assert.False(t, timer.Running())
	assert.Equal(t, 1500*time.Millisecond, timer.Elapsed())
	assert.Equal(t, "1.5", timer.Value())
}

func TestAutoID(t *testing.T) {
	id := AutoID(time.Date(2026, 10, 17, 9, 5, 59, 0, time.UTC))
	assert.Equal(t, "261017-0905", id)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}-\d{4}$`), AutoID(time.Now()))
}

func TestCheckID(t *testing.T) {
	testCases := []struct {
		in        string
		expected  string
		errSubstr string
	}{
		{in: " p01 ", expected: "p01"},
		{in: "", errSubstr: "cannot be empty"},
		{in: "   ", errSubstr: "cannot be empty"},
		{in: "..", errSubstr: "not a valid file name"},
		{in: "a/b", errSubstr: "not allowed"},
		{in: `a\b`, errSubstr: "not allowed"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := CheckID(tc.in)
			if tc.errSubstr != "" {
				assert.ErrorContains(t, err, tc.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCodecFor(t *testing.T) {
	c, err := CodecFor("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, c.Format())

	c, err = CodecFor("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, c.Format())

	_, ok := CodecForPath("notes.txt")
	assert.False(t, ok)
}
