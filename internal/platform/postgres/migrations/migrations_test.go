package migrations

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_tasks.sql", entries[0])

	content, err := fs.ReadFile(FS, entries[0])
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "-- +goose Up")
	assert.Contains(t, text, "-- +goose Down")
	assert.Contains(t, text, "CREATE TABLE tasks")
	assert.Contains(t, text, "(user_id, created_at)")
}

func TestRunUnknownCommand(t *testing.T) {
	err := Run(context.Background(), nil, "sideways", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestSlogGooseLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &slogGooseLogger{log: slog.New(slog.NewJSONHandler(&buf, nil))}

	l.Printf("applied %d migrations", 1)
	l.Fatalf("boom %s", "here")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"applied 1 migrations"`)
	assert.Contains(t, lines[1], `"level":"ERROR"`)
}
