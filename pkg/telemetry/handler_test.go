package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncorag/oncorag/pkg/types"
)

func TestParquetHandlerPersistsErrors(t *testing.T) {
	dir := t.TempDir()
	next := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)

	log := slog.New(h)
	ctx := context.WithValue(context.Background(), types.ContextKeyPatientID, "p1")
	ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "api")

	log.InfoContext(ctx, "indexed document")
	log.ErrorContext(ctx, "embedding failed", slog.String("backend", "openai"))

	require.NoError(t, h.Flush())

	files, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	rows, err := parquet.ReadFile[LogRecord](files[0])
	require.NoError(t, err)
	require.Len(t, rows, 1, "only the error record is persisted")
	assert.Equal(t, "embedding failed", rows[0].Message)
	assert.Equal(t, "p1", rows[0].PatientID)
	assert.Equal(t, "api", rows[0].RequestSource)
	assert.Contains(t, rows[0].Attributes, "openai")
}

func TestParquetHandlerFlushEmptyBuffer(t *testing.T) {
	h, err := NewParquetHandler(slog.NewTextHandler(os.Stderr, nil), t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, h.Flush())
}
