// Package client implements the polling chat controller used by the
// terminal client.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	domain "github.com/example/preschool-chat/domain/chat"
)

// ViewKind selects what the controller displays.
type ViewKind string

// View kinds.
const (
	ViewRoom         ViewKind = "room"
	ViewDirect       ViewKind = "direct"
	ViewAnnouncement ViewKind = "announcement"
)

// DefaultPollInterval is the delay between two fetches.
const DefaultPollInterval = 5 * time.Second

// View is the conversation currently on screen.
type View struct {
	Kind   ViewKind
	Room   string
	Target string
}

// Title returns a heading for the view.
func (v View) Title() string {
	switch v.Kind {
	case ViewDirect:
		return "Direct: " + v.Target
	case ViewAnnouncement:
		return "Announcements"
	default:
		return "Room: " + v.Room
	}
}

// Identity is the participant using the client.
type Identity struct {
	ID   string
	Name string
}

// Controller polls the current view and redraws it.
type Controller struct {
	transport  Transport
	renderer   Renderer
	me         Identity
	interval   time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	view     View
	gen      uint64
	messages []domain.Message
}

// Option configures a Controller.
type Option func(*Controller)

// WithPollInterval sets the delay between fetches.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithMaxBackoff caps the delay after repeated fetch failures.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Controller) {
		c.maxBackoff = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates a controller showing the general room.
func NewController(t Transport, r Renderer, me Identity, opts ...Option) *Controller {
	c := &Controller{
		transport:  t,
		renderer:   r,
		me:         me,
		interval:   DefaultPollInterval,
		maxBackoff: time.Minute,
		logger:     slog.Default(),
		view:       View{Kind: ViewRoom, Room: domain.RoomGeneral},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxBackoff < c.interval {
		c.maxBackoff = c.interval
	}
	return c
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Messages returns the last rendered messages.
func (c *Controller) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SwitchRoom shows a named room and fetches it at once.
func (c *Controller) SwitchRoom(ctx context.Context, room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return &domain.ValidationError{Field: "room", Reason: "room is required"}
	}
	c.setView(View{Kind: ViewRoom, Room: room})
	return c.Refresh(ctx)
}

// OpenDirect shows the conversation with target and fetches it at once.
func (c *Controller) OpenDirect(ctx context.Context, target string) error {
	if _, err := domain.DirectRoomKey(c.me.ID, strings.TrimSpace(target)); err != nil {
		return err
	}
	c.setView(View{Kind: ViewDirect, Target: strings.TrimSpace(target)})
	return c.Refresh(ctx)
}

// OpenAnnouncements shows the announcements room and fetches it at once.
func (c *Controller) OpenAnnouncements(ctx context.Context) error {
	c.setView(View{Kind: ViewAnnouncement, Room: domain.RoomAnnouncements})
	return c.Refresh(ctx)
}

// Send posts text to the current view, then refreshes it.
func (c *Controller) Send(ctx context.Context, text string) error {
	view := c.View()
	out := Outgoing{
		Text:       text,
		AuthorID:   c.me.ID,
		AuthorName: c.me.Name,
	}
	switch view.Kind {
	case ViewDirect:
		out.Kind = domain.KindDirect
		out.TargetID = view.Target
	case ViewAnnouncement:
		out.Kind = domain.KindAnnouncement
	default:
		out.Kind = domain.KindNormal
		if domain.IsStaffRoom(view.Room) {
			out.Kind = domain.KindStaff
		}
		out.Room = view.Room
	}

	if _, err := c.transport.Send(ctx, out); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return c.Refresh(ctx)
}

// Refresh fetches the current view and redraws it. On failure the
// previous render stays on screen.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	view, gen := c.view, c.gen
	c.mu.Unlock()

	messages, err := c.fetch(ctx, view)

	c.mu.Lock()
	if gen != c.gen {
		// The view changed while fetching; the newer view renders itself.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("fetch failed, keeping previous messages", "view", view.Title(), "error", err)
		return err
	}
	c.messages = messages
	c.mu.Unlock()

	if err := c.renderer.Render(view, messages); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Run polls the current view until ctx is cancelled. Failed fetches are
// retried with exponential backoff; the first success restores the
// normal interval.
func (c *Controller) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.MaxInterval = c.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.Reset()

	delay := time.Duration(0)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := c.Refresh(ctx); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
			delay = b.NextBackOff()
		} else {
			b.Reset()
			delay = c.interval
		}
		timer.Reset(delay)
	}
}

func (c *Controller) setView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
	c.gen++
}

func (c *Controller) fetch(ctx context.Context, view View) ([]domain.Message, error) {
	switch view.Kind {
	case ViewDirect:
		return c.transport.FetchDirect(ctx, c.me.ID, view.Target)
	case ViewAnnouncement:
		return c.transport.FetchRoom(ctx, domain.RoomAnnouncements)
	default:
		return c.transport.FetchRoom(ctx, view.Room)
	}
}
