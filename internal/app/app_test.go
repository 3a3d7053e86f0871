package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/answerstore"
	"github.com/vk/palila/internal/navigation"
	"github.com/vk/palila/internal/testutil"
)

const experimentHCL = `
pid_mode = "input"

questionnaire {
  question "1" {
    type    = "MultipleChoice"
    text    = "Age group?"
    choices = ["young", "old"]
  }
}

part "1" {
  intro {
    text = "Part one"
    time = 0.01
  }
  audio "1" {
    filename = "a.wav"
    question "1" {
      type    = "MultipleChoice"
      text    = "Did you hear it?"
      choices = ["Yes", "No"]
    }
  }
}
`

const experimentYAML = `pid mode: auto
part 1:
  audio 1:
    filename: a.wav
    question 1:
      type: MultipleChoice
      text: Did you hear it?
      choices: [Yes, No]
`

// setupApp creates an App over an experiment directory; input is fed to the
// console.
func setupApp(t *testing.T, cfg Config, input string) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	if cfg.Mode != ModeMerge && cfg.ExperimentPath == "" {
		cfg.ExperimentPath = testutil.ExperimentDir(t, map[string]string{"experiment.hcl": experimentHCL}, "a.wav")
	}
	cfg.LogLevel = "debug"
	conf, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(Streams{In: strings.NewReader(input), Out: out, Log: logs}, conf, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if os.Getenv("PALILA_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       Config
		errSubstr string
	}{
		{name: "defaults", cfg: Config{ExperimentPath: "x"}},
		{name: "missing path", cfg: Config{}, errSubstr: "ExperimentPath is a required"},
		{name: "bad level", cfg: Config{ExperimentPath: "x", LogLevel: "loud"}, errSubstr: "LogLevel must be one of"},
		{name: "bad format", cfg: Config{ExperimentPath: "x", OutputFormat: "ods"}, errSubstr: "OutputFormat must be one of"},
		{name: "bad mode", cfg: Config{ExperimentPath: "x", Mode: "serve"}, errSubstr: "Mode must be one of"},
		{name: "bad monitor url", cfg: Config{ExperimentPath: "x", MonitorURL: "not a url"}, errSubstr: "MonitorURL must be a URL"},
		{name: "monitor url", cfg: Config{ExperimentPath: "x", MonitorURL: "http://localhost:3000/socket.io/"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.errSubstr != "" {
				assert.ErrorContains(t, err, tc.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ModeRun, cfg.Mode)
			assert.Equal(t, "csv", cfg.OutputFormat)
			assert.Equal(t, "/", cfg.MonitorNamespace)
		})
	}
}

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		line      string
		expected  navigation.Command
		errSubstr string
	}{
		{line: "next", expected: navigation.Command{Op: navigation.OpNext}},
		{line: "  BACK ", expected: navigation.Command{Op: navigation.OpBack}},
		{line: "answer 01-01-01 Yes", expected: navigation.Command{Op: navigation.OpAnswer, ID: "01-01-01", Value: "Yes"}},
		{line: "answer main-questionnaire-02 I hear well", expected: navigation.Command{Op: navigation.OpAnswer, ID: "main-questionnaire-02", Value: "I hear well"}},
		{line: "pid p7", expected: navigation.Command{Op: navigation.OpParticipant, Value: "p7"}},
		{line: "play", expected: navigation.Command{Op: navigation.OpPlay}},
		{line: "play right", expected: navigation.Command{Op: navigation.OpPlay, Value: "right"}},
		{line: "wait", expected: navigation.Command{Op: navigation.OpWait}},
		{line: "status", expected: navigation.Command{Op: navigation.OpStatus}},
		{line: "restart-questionnaire", expected: navigation.Command{Op: navigation.OpRestart}},
		{line: "play middle", errSubstr: "usage: play"},
		{line: "answer 01-01-01", errSubstr: "usage: answer"},
		{line: "pid", errSubstr: "usage: pid"},
		{line: "next please", errSubstr: "takes no arguments"},
		{line: "jump", errSubstr: "unknown command"},
		{line: "   ", errSubstr: "empty line"},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := ParseCommand(tc.line)
			if tc.errSubstr != "" {
				assert.ErrorContains(t, err, tc.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cmd)
		})
	}
}

func TestApp_Plan(t *testing.T) {
	a, out, _ := setupApp(t, Config{Mode: ModePlan}, "")
	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Screens (6):")
	for _, s := range []string{"welcome", "main-questionnaire-1", "part 1-intro", "part 1-audio 1", "end", "final"} {
		assert.Contains(t, got, s)
	}
	assert.Contains(t, got, "Answer columns (2):\n  main-questionnaire-01\n  01-01-01\n")
	assert.Contains(t, got, "  main-questionnaire-1: main-questionnaire-01\n")
	assert.Contains(t, got, "Timer: starts after main-questionnaire-1, stops at final")
}

func TestApp_PlanFromYAML(t *testing.T) {
	dir := testutil.ExperimentDir(t, map[string]string{"study.yaml": experimentYAML}, "a.wav")
	a, out, logs := setupApp(t, Config{Mode: ModePlan, ExperimentPath: dir}, "")
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "part 1-audio 1")
	assert.Contains(t, logs.String(), "format=.yaml")
}

func TestApp_Session(t *testing.T) {
	input := strings.Join([]string{
		"next",
		"pid p1",
		"next",
		"jump",
		"answer main-questionnaire-01 young",
		"next",
		"wait",
		"next",
		"play",
		"answer 01-01-01 Yes",
		"next",
		"next",
		"next",
	}, "\n")
	a, out, logs := setupApp(t, Config{}, input)
	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "refused: screen cannot be left yet: enter a participant id first")
	assert.Contains(t, got, `error: unknown command "jump"`)
	assert.Contains(t, got, "[4/6] part 1-audio 1 (audio)")
	assert.Contains(t, got, "Session finished.")
	assert.Contains(t, logs.String(), "Session finished.")
	assert.NotContains(t, logs.String(), "Input ended before the session finished")
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Session finished.") {
			assert.Contains(t, line, "experiment="+a.config.ExperimentPath)
		}
	}

	path := filepath.Join(a.config.ExperimentPath, answerstore.ResponsesDir, "p1.csv")
	codec, _ := answerstore.CodecForPath(path)
	table, err := codec.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "main-questionnaire-01", "01-01-01", "timer"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"response", "young", "Yes"}, table.Rows[0][:3])
	assert.NotEmpty(t, table.Rows[0][3])
}

func TestApp_SessionOverride(t *testing.T) {
	input := "pid p2\nnext\nnext\nnext\nnext\nnext\n"
	a, out, _ := setupApp(t, Config{Override: true, OutputFormat: "xlsx"}, input)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Session finished.")
	assert.FileExists(t, filepath.Join(a.config.ExperimentPath, answerstore.ResponsesDir, "p2.xlsx"))
}

func TestApp_SessionInputEndsEarly(t *testing.T) {
	a, _, logs := setupApp(t, Config{}, "pid p3\nnext\n")
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, logs.String(), "Input ended before the session finished")
}

func TestApp_Merge(t *testing.T) {
	dir := t.TempDir()
	responses := filepath.Join(dir, answerstore.ResponsesDir)
	require.NoError(t, os.MkdirAll(responses, 0o755))
	codec, _ := answerstore.CodecFor(answerstore.FormatCSV)
	for _, pid := range []string{"a", "b"} {
		require.NoError(t, codec.Write(filepath.Join(responses, pid+".csv"), &answerstore.Table{
			Header: []string{"", "q", "timer"},
			Rows:   [][]string{{"response", pid, "1"}},
		}))
	}

	a, out, _ := setupApp(t, Config{Mode: ModeMerge, ExperimentPath: dir, Seed: 3, HasSeed: true}, "")
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Merged 2 sessions into")
	assert.FileExists(t, filepath.Join(dir, "responses_table.csv"))
}

func TestApp_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		files     map[string]string
		errSubstr string
	}{
		{name: "no parts", files: map[string]string{"experiment.hcl": `pid_mode = "auto"`}, errSubstr: "the experiment has no parts"},
		{name: "syntax", files: map[string]string{"experiment.hcl": "part \"1\" {"}, errSubstr: "failed to load configuration"},
		{name: "no experiment file", files: map[string]string{"notes.txt": "x"}, errSubstr: "no file with extension"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := testutil.ExperimentDir(t, tc.files)
			a, _, _ := setupApp(t, Config{Mode: ModePlan, ExperimentPath: dir}, "")
			assert.ErrorContains(t, a.Run(context.Background()), tc.errSubstr)
		})
	}
}
