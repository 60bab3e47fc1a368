// Package stream reads and writes TMI lines over an io.Reader or io.Writer.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/time/rate"

	"twitch-tmi/tmi"
)

// LineError is returned by Decode for a line that could not be parsed.
// Decoding may continue after it.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Decoder reads newline-terminated lines and parses them.
type Decoder struct {
	reader *bufio.Reader
	line   int
	done   bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// Line returns the physical line number of the last line read.
func (d *Decoder) Line() int { return d.line }

// Decode returns the next message. Blank lines are skipped. It returns
// io.EOF once the reader is exhausted.
func (d *Decoder) Decode() (tmi.Message, error) {
	for !d.done {
		raw, err := d.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			d.done = true
		}
		if raw == "" {
			continue
		}

		d.line++
		if strings.TrimSpace(raw) == "" {
			continue
		}

		msg, err := tmi.Parse(raw)
		if err != nil {
			return nil, &LineError{Line: d.line, Raw: strings.TrimRight(raw, "\r\n"), Err: err}
		}
		return msg, nil
	}
	return nil, io.EOF
}

// Encoder writes messages as CRLF-terminated lines.
type Encoder struct {
	writer  io.Writer
	limiter *rate.Limiter
}

// NewEncoder returns an Encoder. A non-nil limiter paces writes, e.g.
// rate.NewLimiter(rate.Every(1500*time.Millisecond), 20) for Twitch's
// 20 lines per 30 seconds.
func NewEncoder(w io.Writer, limiter *rate.Limiter) *Encoder {
	return &Encoder{writer: w, limiter: limiter}
}

func (e *Encoder) Encode(ctx context.Context, msg tmi.Message) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	_, err := io.WriteString(e.writer, tmi.Unparse(msg)+"\r\n")
	return err
}
