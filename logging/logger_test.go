package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects both streams for the duration of the test.
func capture(t *testing.T) (out, errs *bytes.Buffer) {
	t.Helper()
	out, errs = &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr, prevLevel, prevColor := OutWriter(), ErrWriter(), Level(), color.NoColor
	SetOutput(out)
	SetError(errs)
	color.NoColor = true
	t.Cleanup(func() {
		SetOutput(prevOut)
		SetError(prevErr)
		SetLevel(prevLevel)
		color.NoColor = prevColor
	})
	return out, errs
}

func TestOutAndErr(t *testing.T) {
	out, errs := capture(t)

	Out("hello", 42)
	Err("broken", "pipe")

	assert.Equal(t, "hello 42\n", out.String())
	assert.Equal(t, "broken pipe\n", errs.String())
}

func TestLevelGates(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{level: 0, want: ""},
		{level: 1, want: "WARN w\n"},
		{level: 2, want: "WARN w\nDBG d\n"},
		{level: 3, want: "WARN w\nDBG d\nSPAM s\n"},
	}

	for _, tt := range tests {
		_, errs := capture(t)
		SetLevel(tt.level)

		Warn("w")
		Dbg("d")
		Spam("s")

		assert.Equal(t, tt.want, errs.String(), "level %d", tt.level)
	}
}

func TestDefaultLevel(t *testing.T) {
	assert.Equal(t, 3, DefaultLevel)
}

func TestNilStreamsRestoreDefaults(t *testing.T) {
	capture(t)

	SetOutput(nil)
	SetError(nil)

	require.NotNil(t, OutWriter())
	require.NotNil(t, ErrWriter())
}

func TestSlogLoggerRenamesErrorKey(t *testing.T) {
	_, errs := capture(t)

	log := New(slog.LevelInfo)
	log.Info("failed", "error", "boom")
	log.Debug("hidden")

	assert.Contains(t, errs.String(), "err=boom")
	assert.NotContains(t, errs.String(), "hidden")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, SlogLevel(-1))
	assert.Equal(t, slog.LevelError, SlogLevel(0))
	assert.Equal(t, slog.LevelWarn, SlogLevel(1))
	assert.Equal(t, slog.LevelInfo, SlogLevel(2))
	assert.Equal(t, slog.LevelDebug, SlogLevel(3))
	assert.Equal(t, slog.LevelDebug, SlogLevel(9))
}

func TestNewNop(t *testing.T) {
	require.NotPanics(t, func() {
		NewNop().Error("dropped")
	})
}

func TestConcurrentWritersKeepLinesWhole(t *testing.T) {
	_, errs := capture(t)
	SetLevel(3)

	log := New(slog.LevelInfo)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				Err("err", "line")
				Dbg("dbg", "line")
				log.Info("slog")
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(errs.String(), "\n"), "\n")
	require.Len(t, lines, 8*50*3)
	for _, l := range lines {
		if l != "err line" && l != "DBG dbg line" && !strings.Contains(l, "msg=slog") {
			t.Fatalf("Interleaved line %q", l)
		}
	}
}

func TestLockedWriterIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w := Locked(&buf)
	assert.Equal(t, w, Locked(w))

	_, err := w.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", buf.String())
}
