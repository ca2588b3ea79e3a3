package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Service: "sortnet", Level: zerolog.InfoLevel, Out: &buf})
	require.NoError(t, err)

	t.Run("writes service and fields", func(t *testing.T) {
		buf.Reset()
		l.Info("connection accepted", F("peer", "127.0.0.1:5000"), Err(errors.New("boom")))
		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "sortnet", lines[0]["service"])
		assert.Equal(t, "connection accepted", lines[0]["message"])
		assert.Equal(t, "127.0.0.1:5000", lines[0]["peer"])
		assert.Equal(t, "boom", lines[0]["error"])
		assert.Equal(t, "info", lines[0]["level"])
	})

	t.Run("filters below level", func(t *testing.T) {
		buf.Reset()
		l.Debug("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("With attaches fields to derived logger only", func(t *testing.T) {
		buf.Reset()
		child := l.With(F("conn_id", 7))
		child.Warn("child")
		l.Warn("parent")
		lines := decodeLines(t, &buf)
		require.Len(t, lines, 2)
		assert.EqualValues(t, 7, lines[0]["conn_id"])
		_, ok := lines[1]["conn_id"]
		assert.False(t, ok)
	})

	require.NoError(t, l.Close())
}

func TestNew_FileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	l, err := New(Options{Service: "svc", Level: zerolog.DebugLevel, Dir: dir, Out: &buf})
	require.NoError(t, err)

	l.Error("to both")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	name := filepath.Join(dir, "svc_"+time.Now().Format(dateLayout)+".log")
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestNop(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	l.Error("discarded", F("k", "v"))
	assert.NotNil(t, l.With(F("a", 1)))
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDailyFileWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyFileWriter("svc", dir)
	require.NoError(t, err)

	t.Run("rotates when the date changes", func(t *testing.T) {
		day := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
		w.now = func() time.Time { return day }
		_, err := w.Write([]byte("a\n"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "svc_2026-10-19.log"), w.CurrentLogFile())

		day = day.Add(2 * time.Minute)
		_, err = w.Write([]byte("b\n"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "svc_2026-10-20.log"), w.CurrentLogFile())

		data, err := os.ReadFile(filepath.Join(dir, "svc_2026-10-20.log"))
		require.NoError(t, err)
		assert.Equal(t, "b\n", string(data))
	})

	t.Run("write after close fails", func(t *testing.T) {
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())
		_, err := w.Write([]byte("c"))
		assert.Error(t, err)
		assert.Empty(t, w.CurrentLogFile())
	})
}
