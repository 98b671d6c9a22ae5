package padsink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemorySinkRecordsOrder(t *testing.T) {
	s := NewMemorySink()
	require.NoError(t, s.Write(context.Background(), MOTFrame, []byte("one")))
	require.NoError(t, s.Write(context.Background(), DLSSegment, []byte("two")))

	frames := s.Frames()
	require.Len(t, frames, 2)
	require.Equal(t, MOTFrame, frames[0].Kind)
	require.Equal(t, "two", string(frames[1].Payload))
}

func TestMemorySinkRespectsContextCancellation(t *testing.T) {
	s := NewMemorySink()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Write(ctx, MOTFrame, []byte("x"))
	require.Error(t, err)
}

func TestFileSinkWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pad.log")
	s, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), DLSSegment, []byte("hello")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "dls 5")
	require.Contains(t, string(data), "hello")
}
