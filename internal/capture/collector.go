package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const readSize = 32 * 1024

// Collector drains one pipe into timestamped chunks, keeping at most limit
// bytes. It is driven by a single goroutine; read its accessors only after
// Drain has returned.
type Collector struct {
	stream    Stream
	limit     int64
	now       func() time.Time
	chunks    []Chunk
	kept      int64
	discarded int64
}

func NewCollector(stream Stream, maxBytes int64) *Collector {
	return &Collector{
		stream: stream,
		limit:  maxBytes,
		now:    time.Now,
	}
}

// Drain reads r until end of stream or until r is closed underneath it.
// Bytes past the cap are still read so the writer never blocks on a full
// pipe, but they are dropped.
func (c *Collector) Drain(r io.Reader) error {
	buf := make([]byte, readSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.accept(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read %s: %w", c.stream, err)
		}
	}
}

func (c *Collector) accept(p []byte) {
	at := c.now()
	keep := int64(len(p))
	if room := c.limit - c.kept; keep > room {
		keep = max(room, 0)
	}
	c.discarded += int64(len(p)) - keep
	if keep == 0 {
		return
	}
	c.kept += keep
	c.chunks = append(c.chunks, Chunk{
		Stream: c.stream,
		Data:   bytes.Clone(p[:keep]),
		At:     at,
		Seq:    len(c.chunks),
	})
}

func (c *Collector) Stream() Stream {
	return c.stream
}

func (c *Collector) Chunks() []Chunk {
	return c.chunks
}

// Bytes is the concatenation of every kept chunk.
func (c *Collector) Bytes() []byte {
	buf := make([]byte, 0, c.kept)
	for _, ch := range c.chunks {
		buf = append(buf, ch.Data...)
	}
	return buf
}

// Truncated reports whether anything was dropped because of the cap.
func (c *Collector) Truncated() bool {
	return c.discarded > 0
}

func (c *Collector) Discarded() int64 {
	return c.discarded
}
