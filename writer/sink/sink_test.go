package sink

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/mp4mux/utils"
)

type flushingWriter struct {
	bytes.Buffer
	flushes int
}

func (w *flushingWriter) Flush() { w.flushes++ }

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

type slowWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *slowWriter) Write(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func TestBuffer(t *testing.T) {
	t.Parallel()

	b := NewBuffer()
	require.NoError(t, b.WriteChunk([]byte{1, 2}))
	require.NoError(t, b.WriteChunk([]byte{3}))
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())
	require.Len(t, b.Chunks(), 2)
	require.Equal(t, int64(3), b.Written())
}

func TestFunc(t *testing.T) {
	t.Parallel()

	var got []byte
	f := Func(func(data []byte) error {
		got = append(got, data...)
		return nil
	})
	require.NoError(t, f.WriteChunk([]byte("moov")))
	require.Equal(t, []byte("moov"), got)
}

func TestWriter(t *testing.T) {
	t.Parallel()

	w := &flushingWriter{}
	s := NewWriter(w)
	require.NoError(t, s.WriteChunk([]byte("ftyp")))
	require.NoError(t, s.WriteChunk([]byte("moov")))
	require.Equal(t, "ftypmoov", w.String())
	require.Equal(t, 2, w.flushes)
	require.Equal(t, int64(8), s.Written())
}

func TestWriterErrors(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, NewWriter(failingWriter{}).WriteChunk([]byte{1}), errWrite)
	require.Error(t, NewWriter(shortWriter{}).WriteChunk([]byte{1, 2}))
}

func TestAsyncFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "init.mp4")
	s, err := NewAsyncFile(path, 2)
	require.NoError(t, err)

	var want []byte
	for i := 0; i < 50; i++ {
		chunk := bytes.Repeat([]byte{byte(i)}, i+1)
		want = append(want, chunk...)
		require.NoError(t, s.WriteChunk(chunk))
	}
	s.Close()
	require.NoError(t, s.Err())

	select {
	case <-s.Done():
	default:
		t.FailNow()
	}

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAsyncDrainsOnClose(t *testing.T) {
	t.Parallel()

	w := &slowWriter{}
	s := NewAsync("slow", w, 100)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.WriteChunk([]byte{byte(i)}))
	}
	s.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Equal(t, 20, w.buf.Len())
}

func TestAsyncWriteAfterClose(t *testing.T) {
	t.Parallel()

	s := NewAsync("closed", &bytes.Buffer{}, 1)
	s.Close()
	err := s.WriteChunk([]byte{1})
	targetError := &utils.SinkClosedError{}
	require.ErrorAs(t, err, &targetError)
}

func TestAsyncWriteFailure(t *testing.T) {
	t.Parallel()

	s := NewAsync("failing", failingWriter{}, 1)
	require.NoError(t, s.WriteChunk([]byte{1}))

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.FailNow()
	}
	require.ErrorIs(t, s.Err(), errWrite)
	require.ErrorIs(t, s.WriteChunk([]byte{2}), errWrite)
	s.Close()
}
