package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/history"
	"codeberg.org/snonux/quicktrans/internal/i18n"
	"codeberg.org/snonux/quicktrans/internal/render"
	"codeberg.org/snonux/quicktrans/internal/translation"
)

// readChunkSize is the size of each read from a response body
const readChunkSize = 4096

var (
	// ErrEmptyInput is returned for input that is empty after trimming
	ErrEmptyInput = errors.New("nothing to translate")

	// ErrMissingCredential is returned when no API key is configured
	ErrMissingCredential = translation.ErrMissingCredential
)

// Sender delivers a translation request and returns the response body
type Sender interface {
	Send(ctx context.Context, req *translation.Request) (io.ReadCloser, error)
}

// Input is one translation request from a front end
type Input struct {
	Text   string
	Source string
	Target string
}

// Options wires a Controller. Config is called once per request to take a
// snapshot of the current settings.
type Options struct {
	Config   func() config.Config
	Sender   Sender
	History  *history.Store
	Renderer render.Renderer
	View     render.View
	Logger   *log.Logger
}

// Controller serializes translations. At most one request is in flight;
// starting another cancels it, and output from a cancelled or superseded
// request never reaches the view.
//
// View methods are called with the controller's lock held and must not
// call back into the Controller.
type Controller struct {
	config   func() config.Config
	sender   Sender
	history  *history.Store
	renderer render.Renderer
	view     render.View
	logger   *log.Logger

	mu         sync.Mutex
	generation uint64
	current    *run
	state      State
}

// run is one translation attempt
type run struct {
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	superseded bool
}

// New creates a Controller
func New(opts Options) *Controller {
	if opts.Renderer == nil {
		opts.Renderer = render.Plain{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Controller{
		config:   opts.Config,
		sender:   opts.Sender,
		history:  opts.History,
		renderer: opts.Renderer,
		view:     opts.View,
		logger:   opts.Logger,
	}
}

// State returns the lifecycle state of the current request
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight reports whether a request is sending or streaming
func (c *Controller) InFlight() bool {
	return c.State() != StateIdle
}

// Translate translates in, cancelling any request still in flight. It
// blocks until the new request completes, fails or is cancelled.
// Cancellation is reported as OutcomeCancelled with a nil error.
func (c *Controller) Translate(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, ErrEmptyInput
	}

	r, prev := c.begin(ctx)
	defer c.finish(r)

	// The previous request must have released the view before this one
	// writes to it.
	if prev != nil {
		select {
		case <-prev:
		case <-r.ctx.Done():
		}
	}
	if r.ctx.Err() != nil {
		return c.cancelled(r), nil
	}

	cfg := c.config()
	if !cfg.HasCredential() {
		c.notifyCurrent(r, render.NoticeError, i18n.T("Please configure the API key in settings first"))
		return Result{Generation: r.generation, Outcome: OutcomeFailed, Err: ErrMissingCredential}, ErrMissingCredential
	}

	c.withView(r, func(v render.View) {
		v.Show("")
		v.SetBusy(true)
	})

	content, err := c.execute(r, text, in, cfg)
	if r.ctx.Err() != nil {
		return c.cancelled(r), nil
	}
	if err != nil {
		return c.failed(r, err), err
	}
	return c.completed(r, in, text, content), nil
}

// Toggle cancels the request in flight, or starts in when idle
func (c *Controller) Toggle(ctx context.Context, in Input) (Result, error) {
	if c.Cancel() {
		return Result{Outcome: OutcomeCancelled}, nil
	}
	return c.Translate(ctx, in)
}

// Cancel aborts the request in flight and returns the view to idle right
// away. It reports whether there was anything to cancel.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.current
	if r == nil {
		return false
	}
	c.current = nil
	c.state = StateIdle
	r.cancel()
	c.logger.Printf("Cancelled translation #%d", r.generation)
	if c.view != nil {
		c.view.SetBusy(false)
		c.view.Notify(render.NoticeCancelled, i18n.T("Translation aborted"))
	}
	return true
}

func (c *Controller) begin(parent context.Context) (*run, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	r := &run{generation: c.generation, done: make(chan struct{})}
	r.ctx, r.cancel = context.WithCancel(parent)

	var prev <-chan struct{}
	if old := c.current; old != nil {
		old.superseded = true
		old.cancel()
		prev = old.done
		c.logger.Printf("Translation #%d superseded by #%d", old.generation, r.generation)
	}
	c.current = r
	c.state = StateSending
	return r, prev
}

func (c *Controller) finish(r *run) {
	c.mu.Lock()
	if c.isCurrent(r) {
		c.current = nil
		c.state = StateIdle
		if c.view != nil {
			c.view.SetBusy(false)
		}
	}
	c.mu.Unlock()

	r.cancel()
	close(r.done)
}

// isCurrent must be called with c.mu held
func (c *Controller) isCurrent(r *run) bool {
	return c.current != nil && c.current.generation == r.generation
}

// withView calls fn only while r is still the current request
func (c *Controller) withView(r *run, fn func(render.View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != nil && c.isCurrent(r) {
		fn(c.view)
	}
}

func (c *Controller) notifyCurrent(r *run, kind render.Notice, message string) {
	c.withView(r, func(v render.View) {
		v.Notify(kind, message)
	})
}

func (c *Controller) setState(r *run, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isCurrent(r) {
		c.state = s
	}
}

func (c *Controller) execute(r *run, text string, in Input, cfg config.Config) (string, error) {
	req, err := translation.Build(text, in.Source, in.Target, cfg)
	if err != nil {
		return "", err
	}

	c.logger.Printf("Translation #%d: %s -> %s via %s (model %s, stream %v)",
		r.generation, in.Source, in.Target, req.Endpoint, cfg.Model, cfg.Stream)

	body, err := c.sender.Send(r.ctx, req)
	if err != nil {
		return "", err
	}
	defer body.Close()

	c.setState(r, StateStreaming)
	if cfg.Stream {
		return c.readStream(r, body)
	}
	return c.readMessage(body)
}

// readStream renders the accumulated text after every fragment
func (c *Controller) readStream(r *run, body io.Reader) (string, error) {
	decoder := translation.NewStreamDecoder(func(err *translation.ProtocolError) {
		c.logger.Printf("Warning: skipping stream record: %v", err)
	})

	var acc strings.Builder
	emit := func(fragments []string) {
		for _, f := range fragments {
			acc.WriteString(f)
			markup := c.renderer.Render(acc.String())
			c.withView(r, func(v render.View) {
				v.Show(markup)
			})
		}
	}

	buf := make([]byte, readChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			emit(decoder.Feed(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return acc.String(), fmt.Errorf("failed to read response: %w", err)
		}
	}
	emit(decoder.Flush())
	return acc.String(), nil
}

func (c *Controller) readMessage(body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return translation.ExtractMessage(data)
}

func (c *Controller) completed(r *run, in Input, text, content string) Result {
	markup := c.renderer.Render(content)

	// A Cancel or supersede either lands before the commit or finds
	// nothing left to cancel.
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCurrent(r) || r.ctx.Err() != nil {
		c.logger.Printf("Translation #%d finished after cancellation, discarded", r.generation)
		return c.cancelledLocked(r)
	}

	if c.view != nil {
		c.view.Show(markup)
	}
	if c.history != nil {
		if err := c.history.Append(history.NewEntry(in.Source, in.Target, text, content)); err != nil {
			c.logger.Printf("Warning: failed to record history: %v", err)
		}
	}
	if c.view != nil {
		c.view.Notify(render.NoticeSuccess, i18n.T("Translation complete"))
	}
	c.logger.Printf("Translation #%d complete (%d bytes)", r.generation, len(content))
	return Result{Generation: r.generation, Outcome: OutcomeCompleted, Text: content}
}

// cancelled reports a cancellation
func (c *Controller) cancelled(r *run) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelledLocked(r)
}

// cancelledLocked notifies only for a run that is still current, one whose
// context ended without Cancel. Cancel sends its own notice and superseded
// runs stay silent. Must be called with c.mu held.
func (c *Controller) cancelledLocked(r *run) Result {
	if c.view != nil && !r.superseded && c.isCurrent(r) {
		c.view.Notify(render.NoticeCancelled, i18n.T("Translation aborted"))
	}
	return Result{Generation: r.generation, Outcome: OutcomeCancelled}
}

func (c *Controller) failed(r *run, err error) Result {
	c.logger.Printf("Translation #%d failed: %v", r.generation, err)
	c.withView(r, func(v render.View) {
		v.ShowError(err.Error())
	})
	return Result{Generation: r.generation, Outcome: OutcomeFailed, Err: err}
}
