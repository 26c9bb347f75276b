package stream

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/inboxfw/inboxfw/internal/types"
)

// maxLineSize bounds a single stream line; advisory payloads are small.
const maxLineSize = 1 << 20

// readEvents scans the wire framing of the push stream and emits one
// StreamEvent per frame. A frame is a group of "event:"/"data:" lines
// terminated by a blank line; comment lines (leading ':') are keepalives.
// Returns io.EOF when the server closes the stream cleanly.
func readEvents(r io.Reader, emit func(types.StreamEvent)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var eventType string
	var data bytes.Buffer

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if eventType != "" || data.Len() > 0 {
				emit(types.StreamEvent{Type: eventType, Data: append([]byte(nil), data.Bytes()...)})
			}
			eventType = ""
			data.Reset()

		case strings.HasPrefix(line, ":"):
			// keepalive comment

		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(line[len("event:"):])

		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))

		default:
			// id:, retry:, unknown fields: no replay semantics, ignored
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
