package agui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Decoder reads AG-UI events from a text/event-stream body.
type Decoder struct {
	r    *bufio.Reader
	data strings.Builder
	has  bool
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next dispatched event. Comment lines and fields other
// than data are skipped; multiple data lines of one event are joined with
// newlines. It returns io.EOF once the stream ends with nothing pending.
func (d *Decoder) Next() (Event, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return Event{}, fmt.Errorf("agui: read stream: %w", err)
		}
		eof := err == io.EOF
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if d.has {
				return d.dispatch()
			}
			if eof {
				return Event{}, io.EOF
			}
			continue
		}
		d.field(line)
		if eof {
			if d.has {
				return d.dispatch()
			}
			return Event{}, io.EOF
		}
	}
}

func (d *Decoder) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name, value, found := strings.Cut(line, ":")
	if !found {
		value = ""
	}
	value = strings.TrimPrefix(value, " ")
	if name != "data" {
		return
	}
	if d.has {
		d.data.WriteByte('\n')
	}
	d.data.WriteString(value)
	d.has = true
}

func (d *Decoder) dispatch() (Event, error) {
	payload := d.data.String()
	d.data.Reset()
	d.has = false
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return Event{}, fmt.Errorf("agui: decode event: %w", err)
	}
	if evt.Type == "" {
		return Event{}, fmt.Errorf("agui: event without type")
	}
	return evt, nil
}
