package prayer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

//go:generate mockgen -source=capture.go -destination=../mocks/prayer/mock_capture.go -package=mock_prayer

const DefaultChunkSize = 4096

// Capturer grants access to an audio source.
type Capturer interface {
	// Start fails with ErrPermissionDenied when the source may not be read.
	Start(ctx context.Context) (Capture, error)
}

// Capture yields encoded audio chunks until io.EOF.
type Capture interface {
	ReadChunk(ctx context.Context) ([]byte, error)
	Close() error
}

// FileCapturer reads an already encoded clip from Path, or from Stdin when
// Path is "-".
type FileCapturer struct {
	Path      string
	ChunkSize int
	Stdin     io.Reader
}

func (c FileCapturer) Start(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Path == "-" {
		stdin := c.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		return newReaderCapture(stdin, nil, c.ChunkSize), nil
	}

	file, err := os.Open(c.Path)
	if errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("os.Open(%s) > %w: %w", c.Path, ErrPermissionDenied, err)
	}
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", c.Path, err)
	}
	return newReaderCapture(file, file, c.ChunkSize), nil
}

// ReaderCapturer captures from an arbitrary reader, such as an uploaded body.
type ReaderCapturer struct {
	Reader    io.Reader
	ChunkSize int
}

func (c ReaderCapturer) Start(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Reader == nil {
		return nil, fmt.Errorf("no audio source: %w", ErrPermissionDenied)
	}
	return newReaderCapture(c.Reader, nil, c.ChunkSize), nil
}

type readResult struct {
	chunk []byte
	err   error
}

// readerCapture reads on a separate goroutine so that a cancelled context
// ends ReadChunk even while the reader blocks, as stdin and request bodies do.
type readerCapture struct {
	reader    io.Reader
	closer    io.Closer
	chunkSize int
	inflight  chan readResult
}

func newReaderCapture(reader io.Reader, closer io.Closer, chunkSize int) *readerCapture {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &readerCapture{reader: reader, closer: closer, chunkSize: chunkSize}
}

func (c *readerCapture) read() chan readResult {
	if c.inflight == nil {
		result := make(chan readResult, 1)
		buf := make([]byte, c.chunkSize)
		go func() {
			n, err := c.reader.Read(buf)
			result <- readResult{chunk: buf[:n], err: err}
		}()
		c.inflight = result
	}
	return c.inflight
}

func (c *readerCapture) ReadChunk(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-c.read():
			c.inflight = nil
			if len(result.chunk) > 0 {
				return result.chunk, nil
			}
			if result.err != nil {
				return nil, result.err
			}
		}
	}
}

func (c *readerCapture) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
