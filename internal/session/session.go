// Package session holds the client's domain state: the logged-in user, the
// focused order and task, chat, control flags and the transient notification.
// Every mutation is written through to the profile store so a later process
// (or the TUI after a restart) sees the same session until logout.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pautas-cli/internal/model"

	"github.com/rs/zerolog/log"
)

// Slice keys as persisted.
const (
	KeyUser    = "user"
	KeyOrder   = "order"
	KeyTask    = "task"
	KeyChat    = "chat"
	KeyControl = "control"
	KeyNotify  = "notifyData"
)

// ErrorNotificationMs is how long a control error stays on screen.
const ErrorNotificationMs = 3000

// Persister is the storage boundary; store.Store implements it.
type Persister interface {
	LoadSlices(ctx context.Context) (map[string]json.RawMessage, error)
	SaveSlices(ctx context.Context, slices map[string]any) error
	Clear(ctx context.Context) error
}

// State is a copy of all six slices.
type State struct {
	User         model.User         `json:"user"`
	Order        model.OrderContext `json:"order"`
	Task         model.TaskContext  `json:"task"`
	Chat         model.ChatState    `json:"chat"`
	Control      model.ControlState `json:"control"`
	Notification model.Notification `json:"notifyData"`
}

// Defaults is the anonymous, freshly-started state.
func Defaults() State {
	return State{
		User:    model.User{Theme: model.ThemeLight},
		Order:   model.OrderContext{Annexes: []string{}},
		Control: model.ControlState{},
	}
}

type Session struct {
	mu       sync.Mutex
	st       State
	p        Persister
	now      func() time.Time
	onLogout []func()
}

type Option func(*Session)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Open rehydrates the session from p. Slices that were never saved, or that
// fail to decode, start from their defaults.
func Open(ctx context.Context, p Persister, opts ...Option) (*Session, error) {
	s := &Session{st: Defaults(), p: p, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.st.Control.Loading = true
	raw, err := p.LoadSlices(ctx)
	if err != nil {
		return nil, err
	}
	targets := map[string]any{
		KeyUser:    &s.st.User,
		KeyOrder:   &s.st.Order,
		KeyTask:    &s.st.Task,
		KeyChat:    &s.st.Chat,
		KeyControl: &s.st.Control,
		KeyNotify:  &s.st.Notification,
	}
	for k, dst := range targets {
		b, ok := raw[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(b, dst); err != nil {
			log.Warn().Err(err).Str("slice", k).Msg("ignoring unreadable session slice")
		}
	}
	s.st.Control.Loading = false
	return s, nil
}

// OnLogout registers a hook run after Logout resets the state.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

func (s *Session) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.User
}

func (s *Session) Order() model.OrderContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Order
}

func (s *Session) Task() model.TaskContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Task
}

func (s *Session) Chat() model.ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Chat
}

func (s *Session) Control() model.ControlState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Control
}

// save persists the named slices. Caller holds s.mu.
func (s *Session) save(ctx context.Context, keys ...string) error {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		switch k {
		case KeyUser:
			out[k] = s.st.User
		case KeyOrder:
			out[k] = s.st.Order
		case KeyTask:
			out[k] = s.st.Task
		case KeyChat:
			out[k] = s.st.Chat
		case KeyControl:
			out[k] = s.st.Control
		case KeyNotify:
			out[k] = s.st.Notification
		}
	}
	return s.p.SaveSlices(ctx, out)
}

func (s *Session) SetUser(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.User = u
	return s.save(ctx, KeyUser)
}

func (s *Session) SetOrder(ctx context.Context, o model.OrderContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.Annexes == nil {
		o.Annexes = []string{}
	}
	s.st.Order = o
	return s.save(ctx, KeyOrder)
}

func (s *Session) SetTask(ctx context.Context, t model.TaskContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Task = t
	return s.save(ctx, KeyTask)
}

func (s *Session) SetChat(ctx context.Context, c model.ChatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Chat = c
	return s.save(ctx, KeyChat)
}

// SetControl stores the control flags. A control error is turned into an
// error notification and the error flag is cleared in the same step.
func (s *Session) SetControl(ctx context.Context, c model.ControlState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !c.Error {
		s.st.Control = c
		return s.save(ctx, KeyControl)
	}
	s.st.Notification = model.Notification{
		Title:      "Error",
		Message:    c.ErrorMessage,
		Kind:       model.NotifyError,
		DurationMs: ErrorNotificationMs,
		Active:     true,
		ShownAt:    s.now(),
	}
	c.Error = false
	c.ErrorMessage = ""
	s.st.Control = c
	return s.save(ctx, KeyControl, KeyNotify)
}

// SetNotification replaces the notification. Activating stamps ShownAt.
func (s *Session) SetNotification(ctx context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Active && n.ShownAt.IsZero() {
		n.ShownAt = s.now()
	}
	s.st.Notification = n
	return s.save(ctx, KeyNotify)
}

// Notify shows a notification of the given kind.
func (s *Session) Notify(ctx context.Context, kind model.NotificationKind, title, message string, durationMs int) error {
	return s.SetNotification(ctx, model.Notification{
		Title:      title,
		Message:    message,
		Kind:       kind,
		DurationMs: durationMs,
		Active:     true,
	})
}

// Fail reports an error through the control slice.
func (s *Session) Fail(ctx context.Context, message string) error {
	c := s.Control()
	c.Loading = false
	c.Error = true
	c.ErrorMessage = message
	return s.SetControl(ctx, c)
}

func (s *Session) SetLoading(ctx context.Context, loading bool) error {
	c := s.Control()
	c.Loading = loading
	return s.SetControl(ctx, c)
}

// ActiveNotification returns the current notification while it is within its
// display window. An expired notification is deactivated.
func (s *Session) ActiveNotification(ctx context.Context) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.st.Notification
	if !n.Active {
		return n, false
	}
	if n.Expired(s.now()) {
		s.st.Notification.Active = false
		if err := s.save(ctx, KeyNotify); err != nil {
			log.Warn().Err(err).Msg("persist notification expiry")
		}
		return s.st.Notification, false
	}
	return n, true
}

func (s *Session) DismissNotification(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Notification.Active = false
	return s.save(ctx, KeyNotify)
}

// ToggleChat opens or closes the chat panel. Opening clears the unread count.
func (s *Session) ToggleChat(ctx context.Context) error {
	c := s.Chat()
	c.Open = !c.Open
	if c.Open {
		c.Unread = 0
	}
	return s.SetChat(ctx, c)
}

// Logout resets every slice to its default and clears persisted storage in
// one step, then runs the logout hooks.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.st = Defaults()
	err := s.p.Clear(ctx)
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	if err != nil {
		return err
	}
	log.Info().Msg("session cleared")
	return nil
}
