package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"codeberg.org/snonux/quicktrans/internal/render"
)

// StreamRecord formats content as one server-sent chat-completion chunk
func StreamRecord(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]string{"content": content}},
		},
	})
	return "data: " + string(payload) + "\n"
}

// StreamBody formats fragments as a complete stream ending with [DONE]
func StreamBody(fragments ...string) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(StreamRecord(f))
		b.WriteString("\n")
	}
	b.WriteString("data: [DONE]\n")
	return b.String()
}

// MessageBody formats content as a non-streamed chat-completion response
func MessageBody(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(payload)
}

// RecordedRequest is one request received by a FakeEndpoint
type RecordedRequest struct {
	Path          string
	Authorization string
	Body          map[string]any
}

// FakeEndpoint is a chat-completion server for tests. By default it
// answers every request with StreamBody of its fragments.
type FakeEndpoint struct {
	Server *httptest.Server

	mu        sync.Mutex
	fragments []string
	handler   func(w http.ResponseWriter, r *http.Request)
	requests  []RecordedRequest
}

// NewFakeEndpoint starts a fake endpoint that is closed with the test
func NewFakeEndpoint(t *testing.T, fragments ...string) *FakeEndpoint {
	t.Helper()

	f := &FakeEndpoint{fragments: fragments}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL to configure
func (f *FakeEndpoint) URL() string {
	return f.Server.URL
}

// SetHandler replaces the default streaming answer
func (f *FakeEndpoint) SetHandler(h func(w http.ResponseWriter, r *http.Request)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

// Requests returns the requests received so far
func (f *FakeEndpoint) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

func (f *FakeEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{Path: r.URL.Path, Authorization: r.Header.Get("Authorization")}
	data, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(data, &rec.Body)

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	handler := f.handler
	fragments := f.fragments
	f.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	fmt.Fprint(w, StreamBody(fragments...))
}

// Flush sends what has been written so far to the client
func Flush(w http.ResponseWriter) {
	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

// Notification is one call to RecordingView.Notify
type Notification struct {
	Kind    render.Notice
	Message string
}

// RecordingView is a render.View that records every call
type RecordingView struct {
	mu            sync.Mutex
	shown         []string
	errors        []string
	notifications []Notification
	busy          []bool
}

// Show implements render.View
func (v *RecordingView) Show(markup string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shown = append(v.shown, markup)
}

// ShowError implements render.View
func (v *RecordingView) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, message)
}

// Notify implements render.View
func (v *RecordingView) Notify(kind render.Notice, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications = append(v.notifications, Notification{Kind: kind, Message: message})
}

// SetBusy implements render.View
func (v *RecordingView) SetBusy(busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = append(v.busy, busy)
}

// Shown returns every markup passed to Show
func (v *RecordingView) Shown() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.shown...)
}

// Last returns the most recent markup passed to Show
func (v *RecordingView) Last() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.shown) == 0 {
		return ""
	}
	return v.shown[len(v.shown)-1]
}

// Errors returns every message passed to ShowError
func (v *RecordingView) Errors() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.errors...)
}

// Notifications returns every notification
func (v *RecordingView) Notifications() []Notification {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Notification(nil), v.notifications...)
}

// Busy returns the last busy state, false if SetBusy was never called
func (v *RecordingView) Busy() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.busy) > 0 && v.busy[len(v.busy)-1]
}
