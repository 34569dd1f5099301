package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zachkp/portfolio/internal/backend"
	"github.com/Zachkp/portfolio/internal/events"
	"github.com/Zachkp/portfolio/internal/metrics"
	"github.com/Zachkp/portfolio/internal/portfolio"
	"github.com/Zachkp/portfolio/internal/session"
)

// Backend is the part of the API client the controller needs.
type Backend interface {
	Load(ctx context.Context) (backend.Snapshot, error)
	SubmitContact(ctx context.Context, form portfolio.FormState) error
	ResumeURL() string
}

// Controller applies page events to session state.
type Controller struct {
	backend  Backend
	sessions session.Store
	events   events.Publisher
	locks    sessionLocks
	now      func() time.Time
}

// NewController wires a controller. A nil publisher drops contact events.
func NewController(b Backend, sessions session.Store, pub events.Publisher) *Controller {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Controller{
		backend:  b,
		sessions: sessions,
		events:   pub,
		now:      time.Now,
	}
}

// ResumeURL is the resume link shown in the hero and timeline.
func (c *Controller) ResumeURL() string {
	return c.backend.ResumeURL()
}

// Page renders s as of now.
func (c *Controller) Page(s State) Page {
	return NewPage(s, c.backend.ResumeURL(), c.now())
}

// Mount starts a new page session and loads its data. A failed load leaves the
// fallback profile and empty lists in place; it is logged, never returned.
func (c *Controller) Mount(ctx context.Context) (string, State, error) {
	id := session.NewID()
	s := c.fetch(ctx)
	if err := c.save(ctx, id, s); err != nil {
		return "", State{}, err
	}
	return id, s, nil
}

// Reload fetches fresh data for session id and keeps its contact form, so a
// status set by a form post survives the redirect back to the page. Unknown
// sessions are mounted afresh.
func (c *Controller) Reload(ctx context.Context, id string) (string, State, error) {
	if !session.ValidID(id) {
		return c.Mount(ctx)
	}
	s := c.fetch(ctx)

	unlock := c.locks.lock(id)
	defer unlock()
	prev, err := c.load(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Warn("session unavailable, starting a new one", "error", err)
		}
		id = session.NewID()
	} else {
		s.Form = prev.Form
	}
	if err := c.save(ctx, id, s); err != nil {
		return "", State{}, err
	}
	return id, s, nil
}

// Resume returns the stored state of session id. Unknown, expired or
// unreadable sessions are mounted afresh, so the returned id may differ from
// the one passed in.
func (c *Controller) Resume(ctx context.Context, id string) (string, State, error) {
	if !session.ValidID(id) {
		return c.Mount(ctx)
	}
	s, err := c.load(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Warn("session unavailable, starting a new one", "error", err)
		}
		return c.Mount(ctx)
	}
	return id, s, nil
}

// SetFilter replaces the project filter text.
func (c *Controller) SetFilter(ctx context.Context, id, filter string) (string, State, error) {
	unlock := c.locks.lock(id)
	defer unlock()

	id, s, err := c.Resume(ctx, id)
	if err != nil {
		return "", State{}, err
	}
	s.Filter = filter
	if err := c.save(ctx, id, s); err != nil {
		return "", State{}, err
	}
	return id, s, nil
}

// UpdateField binds one contact form field.
func (c *Controller) UpdateField(ctx context.Context, id, field, value string) (string, State, error) {
	unlock := c.locks.lock(id)
	defer unlock()

	id, s, err := c.Resume(ctx, id)
	if err != nil {
		return "", State{}, err
	}
	s.Form = s.Form.Input(field, value)
	if err := c.save(ctx, id, s); err != nil {
		return "", State{}, err
	}
	return id, s, nil
}

// Submit applies the posted field values and sends the form. A submission that
// arrives while another is in flight for the same session is ignored. The
// session is not locked while the request is out, so fields can still be bound;
// the outcome is applied to whatever state is stored when it returns.
func (c *Controller) Submit(ctx context.Context, id string, fields map[string]string) (string, State, error) {
	unlock := c.locks.lock(id)
	id, s, err := c.Resume(ctx, id)
	if err != nil {
		unlock()
		return "", State{}, err
	}
	for field, value := range fields {
		s.Form = s.Form.Input(field, value)
	}

	form, ok := s.Form.Begin()
	if !ok {
		unlock()
		return id, s, nil
	}
	s.Form = form
	err = c.save(ctx, id, s)
	unlock()
	if err != nil {
		return "", State{}, err
	}

	subject := s.Form.State.Subject
	sendErr := c.backend.SubmitContact(ctx, s.Form.State)

	unlock = c.locks.lock(id)
	defer unlock()
	if stored, err := c.load(ctx, id); err == nil && stored.Form.Status.Kind == portfolio.StatusLoading {
		s = stored
	}
	if sendErr != nil {
		slog.Info("contact submission failed", "error", sendErr)
		s.Form = s.Form.Fail(sendErr.Error())
	} else {
		s.Form = s.Form.Succeed()
	}

	metrics.ObserveSubmission(string(s.Form.Status.Kind))
	ev := events.ContactSubmitted{
		Status:  string(s.Form.Status.Kind),
		Subject: subject,
		At:      c.now().UTC(),
	}
	if s.Form.Status.Kind == portfolio.StatusError {
		ev.Error = s.Form.Status.Message
	}
	if err := c.events.PublishContact(ctx, ev); err != nil {
		slog.Warn("contact event not published", "error", err)
	}

	if err := c.save(ctx, id, s); err != nil {
		return "", State{}, err
	}
	return id, s, nil
}

// fetch loads the page data, falling back to the placeholder profile.
func (c *Controller) fetch(ctx context.Context) State {
	s := NewState()
	snap, err := c.backend.Load(ctx)
	if err != nil {
		slog.Warn("initial load failed, showing fallback profile", "error", err)
		fallback := portfolio.FallbackProfile()
		s.Profile = &fallback
		return s
	}
	s.Profile = &snap.Profile
	s.Projects = snap.Projects
	s.Experiences = snap.Experiences
	return s
}

func (c *Controller) load(ctx context.Context, id string) (State, error) {
	data, err := c.sessions.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return s, nil
}

// save stores s. A store that cannot be reached only costs the visitor their
// session, so that is logged and the page still renders.
func (c *Controller) save(ctx context.Context, id string, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := c.sessions.Set(ctx, id, data); err != nil {
		slog.Warn("session not saved", "session", id, "error", err)
	}
	return nil
}
