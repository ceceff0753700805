package capture

import "time"

// Stream tags which pipe a chunk was read from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// ParseStream accepts "stdout" and "stderr".
func ParseStream(s string) (Stream, bool) {
	switch s {
	case "stdout":
		return Stdout, true
	case "stderr":
		return Stderr, true
	}
	return Stdout, false
}

// Chunk is the data returned by one pipe read, stamped when the read
// completed. At carries a monotonic reading.
type Chunk struct {
	Stream Stream
	Data   []byte
	At     time.Time
	Seq    int
}

// Segment is a run of adjacent same-stream output in a transcript.
type Segment struct {
	Stream Stream
	Data   []byte
}

// Filter concatenates the data of every chunk from stream, in order. The
// result is never nil, matching Collector.Bytes.
func Filter(transcript []Chunk, stream Stream) []byte {
	out := []byte{}
	for _, c := range transcript {
		if c.Stream == stream {
			out = append(out, c.Data...)
		}
	}
	return out
}

// Coalesce joins adjacent chunks of the same stream. Chunk boundaries depend
// on pipe scheduling, segments only on write order across streams.
func Coalesce(transcript []Chunk) []Segment {
	var segs []Segment
	for _, c := range transcript {
		if len(c.Data) == 0 {
			continue
		}
		if n := len(segs); n > 0 && segs[n-1].Stream == c.Stream {
			segs[n-1].Data = append(segs[n-1].Data, c.Data...)
			continue
		}
		segs = append(segs, Segment{Stream: c.Stream, Data: append([]byte(nil), c.Data...)})
	}
	return segs
}

// CoalesceSegments normalises a hand-written segment list the same way.
func CoalesceSegments(in []Segment) []Segment {
	chunks := make([]Chunk, len(in))
	for i, s := range in {
		chunks[i] = Chunk{Stream: s.Stream, Data: s.Data}
	}
	return Coalesce(chunks)
}
