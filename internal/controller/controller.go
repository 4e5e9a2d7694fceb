package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playlist"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

// ScreenState is the single visible region of the UI.
type ScreenState int

const (
	Welcome ScreenState = iota
	Loading
	Results
	Error
)

func (s ScreenState) String() string {
	switch s {
	case Welcome:
		return "welcome"
	case Loading:
		return "loading"
	case Results:
		return "results"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("ScreenState(%d)", int(s))
	}
}

// Screen is a snapshot of what is visible. Every snapshot carries its own copy of the view rows.
//
// View is set only in [Results]; Message and Err only in [Error].
type Screen struct {
	State   ScreenState
	Prompt  string
	View    *playlist.View
	Message string
	Err     error
}

// Renderer draws a [Screen]. It is called outside the controller's lock and never concurrently with itself.
//
// Screens are delivered in transition order. When transitions race a slow Render, the intermediate screens
// are skipped and only the newest is delivered, so the last rendered screen always matches [Controller.Snapshot].
type Renderer interface {
	Render(Screen)
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc func(Screen)

func (f RendererFunc) Render(s Screen) { f(s) }

// Ticket identifies one submission. Only the most recently issued ticket can be resolved.
type Ticket struct {
	ID     uint64
	Prompt string
}

// Controller drives the welcome/loading/results/error state machine.
//
// It is safe for concurrent use; the recommendation call always runs without holding the lock.
type Controller struct {
	mu      sync.Mutex
	state   ScreenState
	prompt  string
	view    *playlist.View
	message string
	err     error
	latest  uint64
	pending bool
	seq     uint64

	// render queue, guarded by rmu
	rmu       sync.Mutex
	queued    Screen
	queuedSeq uint64
	delivered uint64
	rendering bool

	recommender services.Recommender
	renderer    Renderer
	logger      *log.Logger
}

// Opts configures a [Controller]. Renderer and Logger are optional.
type Opts struct {
	Recommender services.Recommender
	Renderer    Renderer
	Logger      *log.Logger
}

// New creates a controller on the welcome screen.
func New(opts Opts) *Controller {
	if opts.Renderer == nil {
		opts.Renderer = RendererFunc(func(Screen) {})
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Controller{
		state:       Welcome,
		recommender: opts.Recommender,
		renderer:    opts.Renderer,
		logger:      opts.Logger,
	}
}

// Submit validates text, shows the loading screen and then applies the service outcome.
//
// It returns [shared.ErrEmptyPrompt] without any transition or network call when text is blank, the
// service error when the request failed, and [shared.ErrStale] when a newer submission or a reset
// superseded this one while it was in flight.
func (c *Controller) Submit(ctx context.Context, text string) error {
	ticket, err := c.Begin(text)
	if err != nil {
		return err
	}

	rec, err := c.recommender.Recommend(ctx, ticket.Prompt)
	if !c.Resolve(ticket, rec, err) {
		return fmt.Errorf("%w: %q", shared.ErrStale, ticket.Prompt)
	}
	return outcome(rec, err)
}

// Begin is the first half of [Controller.Submit] for event loops that perform the request themselves.
//
// On success the controller is in [Loading] and has rendered it; the caller must pass the returned
// ticket to [Controller.Resolve].
func (c *Controller) Begin(text string) (Ticket, error) {
	prompt, err := models.NormalizePrompt(text)
	if err != nil {
		return Ticket{}, err
	}

	c.mu.Lock()
	c.latest++
	c.pending = true
	c.state = Loading
	c.prompt = prompt
	c.view = nil
	c.message = ""
	c.err = nil
	ticket := Ticket{ID: c.latest, Prompt: prompt}
	screen, seq := c.stamp()
	c.mu.Unlock()

	c.logger.Debug("submitted prompt", "ticket", ticket.ID, "prompt", prompt)
	c.deliver(screen, seq)
	return ticket, nil
}

// Resolve applies the outcome of ticket's request. It reports false, changing nothing, when the
// ticket is not the latest one or was invalidated by [Controller.Reset].
func (c *Controller) Resolve(ticket Ticket, rec *models.Recommendation, err error) bool {
	c.mu.Lock()
	if !c.pending || ticket.ID != c.latest {
		latest := c.latest
		c.mu.Unlock()
		c.logger.Debug("discarded stale response", "ticket", ticket.ID, "latest", latest)
		return false
	}
	c.pending = false

	if err = outcome(rec, err); err != nil {
		c.state = Error
		c.err = err
		c.message = services.UserMessage(err)
	} else {
		c.state = Results
		c.view = playlist.Build(rec)
	}
	screen, seq := c.stamp()
	c.mu.Unlock()

	if screen.State == Error {
		c.logger.Warn("recommendation failed", "ticket", ticket.ID, "error", screen.Err)
	} else {
		c.logger.Debug("recommendation applied", "ticket", ticket.ID, "songs", screen.View.SongCount)
	}
	c.deliver(screen, seq)
	return true
}

// Reset returns to the welcome screen, clears the prompt and invalidates any pending ticket.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.pending {
		c.logger.Debug("reset cancelled pending request", "ticket", c.latest)
	}
	c.pending = false
	c.state = Welcome
	c.prompt = ""
	c.view = nil
	c.message = ""
	c.err = nil
	screen, seq := c.stamp()
	c.mu.Unlock()

	c.deliver(screen, seq)
}

// State returns the current screen state.
func (c *Controller) State() ScreenState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the visible screen.
func (c *Controller) Snapshot() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Screen {
	var view *playlist.View
	if c.view != nil {
		v := *c.view
		v.Rows = slices.Clone(c.view.Rows)
		view = &v
	}
	return Screen{
		State:   c.state,
		Prompt:  c.prompt,
		View:    view,
		Message: c.message,
		Err:     c.err,
	}
}

// stamp numbers the current screen for delivery. Callers hold c.mu.
func (c *Controller) stamp() (Screen, uint64) {
	c.seq++
	return c.snapshot(), c.seq
}

// deliver hands screen to the renderer unless a newer screen has already been delivered.
//
// Only one goroutine renders at a time. A screen queued while another goroutine is rendering is picked
// up by that goroutine once its Render returns, replacing any older queued screen.
func (c *Controller) deliver(screen Screen, seq uint64) {
	c.rmu.Lock()
	if seq > c.queuedSeq {
		c.queued, c.queuedSeq = screen, seq
	}
	if c.rendering {
		c.rmu.Unlock()
		return
	}

	c.rendering = true
	for c.queuedSeq > c.delivered {
		next, n := c.queued, c.queuedSeq
		c.delivered = n
		c.rmu.Unlock()
		c.renderer.Render(next)
		c.rmu.Lock()
	}
	c.rendering = false
	c.rmu.Unlock()
}

// outcome folds a success:false body into a [services.ServiceError] so callers only inspect err.
func outcome(rec *models.Recommendation, err error) error {
	if err != nil {
		return err
	}
	if rec == nil {
		return &services.ServiceError{StatusCode: http.StatusOK}
	}
	if !rec.Success {
		return &services.ServiceError{StatusCode: http.StatusOK, Message: rec.Error}
	}
	return nil
}
