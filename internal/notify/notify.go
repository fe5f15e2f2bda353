// Package notify provides sinks for user-facing outcome notifications.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Notifier receives fire-and-forget notifications.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, message string)

// Notify calls f.
func (f Func) Notify(kind Kind, message string) { f(kind, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Kind, string) {})

// Logger writes notifications as structured log records.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a notifier backed by logger.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// Notify logs errors at error level and everything else at info level.
func (l *Logger) Notify(kind Kind, message string) {
	if kind == Error {
		l.logger.Error(message, "notification", string(kind))
		return
	}
	l.logger.Info(message, "notification", string(kind))
}

// Notification is one recorded notification.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder keeps the most recent notifications in memory, for tool surfaces
// that poll instead of rendering toasts.
type Recorder struct {
	mu    sync.Mutex
	max   int
	items []Notification
	next  Notifier
}

// NewRecorder keeps up to max notifications and forwards each one to next
// when next is non-nil.
func NewRecorder(max int, next Notifier) *Recorder {
	if max <= 0 {
		max = 100
	}
	return &Recorder{max: max, next: next}
}

// Notify records the notification.
func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	r.items = append(r.items, Notification{Kind: kind, Message: message, At: time.Now()})
	if over := len(r.items) - r.max; over > 0 {
		r.items = append([]Notification(nil), r.items[over:]...)
	}
	r.mu.Unlock()

	if r.next != nil {
		r.next.Notify(kind, message)
	}
}

// Notifications returns a copy of the recorded notifications, oldest first.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
