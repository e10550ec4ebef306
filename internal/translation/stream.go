package translation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "data: [DONE]"
)

// ProtocolError describes a stream record or body that did not match the
// chat-completion schema
type ProtocolError struct {
	Record string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed record %q: %v", e.Record, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

var errNoDataPrefix = errors.New("missing data prefix")

// ExtractDelta returns choices[0].delta.content of a stream record payload.
// ok is false when the payload is not valid JSON or carries no content.
func ExtractDelta(payload []byte) (content string, ok bool) {
	content, err := parseDelta(payload)
	return content, err == nil && content != ""
}

func parseDelta(payload []byte) (string, error) {
	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", err
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}

// ExtractMessage returns choices[0].message.content of a non-streamed
// response body
func ExtractMessage(body []byte) (string, error) {
	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ProtocolError{Record: truncate(string(body)), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProtocolError{Record: truncate(string(body)), Err: errors.New("response has no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamDecoder splits a server-sent event stream into records and
// extracts the content fragments. Chunks may end anywhere, even inside a
// record; the incomplete tail is held until the next chunk.
type StreamDecoder struct {
	pending     []byte
	done        bool
	onMalformed func(*ProtocolError)
}

// NewStreamDecoder creates a decoder. onMalformed, if not nil, is called
// for every record that is skipped because it could not be parsed.
func NewStreamDecoder(onMalformed func(*ProtocolError)) *StreamDecoder {
	return &StreamDecoder{onMalformed: onMalformed}
}

// Feed appends chunk to the buffer and returns the content fragments of
// all records it completed, in order.
func (d *StreamDecoder) Feed(chunk []byte) []string {
	d.pending = append(d.pending, chunk...)

	var fragments []string
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := d.pending[:i]
		if fragment, ok := d.record(line); ok {
			fragments = append(fragments, fragment)
		}
		d.pending = d.pending[i+1:]
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return fragments
}

// Flush processes an unterminated final record left when the stream ends
func (d *StreamDecoder) Flush() []string {
	line := d.pending
	d.pending = nil
	if fragment, ok := d.record(line); ok {
		return []string{fragment}
	}
	return nil
}

// Done reports whether the end-of-stream sentinel was seen
func (d *StreamDecoder) Done() bool {
	return d.done
}

func (d *StreamDecoder) record(raw []byte) (string, bool) {
	line := string(bytes.TrimSpace(raw))
	if line == "" {
		return "", false
	}
	if line == doneSentinel {
		d.done = true
		return "", false
	}

	payload, found := strings.CutPrefix(line, dataPrefix)
	if !found {
		d.malformed(line, errNoDataPrefix)
		return "", false
	}

	content, err := parseDelta([]byte(payload))
	if err != nil {
		d.malformed(line, err)
		return "", false
	}
	return content, content != ""
}

func (d *StreamDecoder) malformed(line string, err error) {
	if d.onMalformed != nil {
		d.onMalformed(&ProtocolError{Record: truncate(line), Err: err})
	}
}

func truncate(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
