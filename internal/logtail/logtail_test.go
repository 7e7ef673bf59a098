package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "regsync.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	require.NoError(t, os.WriteFile(logPath, []byte(content.String()), 0o644))

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"zero reads nothing", 0, nil},
		{"negative reads nothing", -1, nil},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecode(t *testing.T) {
	lines := []string{
		`{"level":"warn","app":"regsync","component":"session","state":"auth_rejected","path":"/Login","time":"2026-10-18T08:00:00Z","message":"login state"}`,
		``,
		`plain text line`,
		`{"level":"info","status":200,"message":"request done","error":"none"}`,
	}
	entries := Decode(lines)
	require.Len(t, entries, 3)

	first := entries[0]
	require.Equal(t, "warn", first.Level)
	require.Equal(t, "session", first.Component)
	require.Equal(t, "login state", first.Message)
	require.Equal(t, 2026, first.Time.Year())
	require.Equal(t, []string{"path", "state"}, first.FieldKeys())
	require.Equal(t, "/Login", first.Fields["path"])

	require.Equal(t, "plain text line", entries[1].Message)
	require.Empty(t, entries[1].Level)

	require.Equal(t, "200", entries[2].Fields["status"])
	require.Equal(t, "none", entries[2].Error)
}
