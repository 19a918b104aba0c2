// Package sse parses Server-Sent-Events framing the way the streaming
// provider adapters need: line-delimited "event: <type>" / "data: <json>"
// pairs terminated by a blank line, via a bufio.Scanner-based streaming
// reader.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// Frame is one dispatched SSE event: its declared type (empty if the
// provider omitted "event:") and its joined data lines.
type Frame struct {
	Event string
	Data  string
}

// Parse reads r line by line and invokes handle once per blank-line-
// terminated frame. It stops on handle returning an error, on a read error,
// or on EOF, and always flushes a final frame if the stream ends without a
// trailing blank line.
func Parse(r io.Reader, handle func(Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	var dataLines []string

	flush := func() error {
		if eventType == "" && len(dataLines) == 0 {
			return nil
		}
		frame := Frame{Event: eventType, Data: strings.Join(dataLines, "\n")}
		eventType = ""
		dataLines = nil
		return handle(frame)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// ignore id:/retry:/comment lines — the providers this client
			// talks to don't use them for content framing.
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}

// IsDone reports whether data is the OpenAI-style stream terminator.
func IsDone(data string) bool {
	return strings.TrimSpace(data) == "[DONE]"
}
