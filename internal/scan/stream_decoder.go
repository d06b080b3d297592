package scan

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// StreamDecoder adapts a line-oriented device stream to the Decoder
// interface: one decoded symbol per line, as emitted by an external decoder
// process writing to a FIFO or serial device.
type StreamDecoder struct {
	stream  io.ReadCloser
	scanner *bufio.Scanner
}

// NewStreamDecoder creates a decoder over the given stream
func NewStreamDecoder(stream io.ReadCloser) *StreamDecoder {
	return &StreamDecoder{
		stream:  stream,
		scanner: bufio.NewScanner(stream),
	}
}

// Decode returns the next non-blank line from the stream. io.EOF means the
// device stream closed.
func (d *StreamDecoder) Decode(ctx context.Context) (string, error) {
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		return line, nil
	}
	if err := d.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close closes the underlying stream
func (d *StreamDecoder) Close() error {
	return d.stream.Close()
}
