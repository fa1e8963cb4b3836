// Package http serves the statement dashboard, its htmx fragments and the
// JSON API.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"
)

// Client-side events raised through HX-Trigger.
const (
	// EventTransactionsChanged makes the insight and table fragments reload.
	EventTransactionsChanged = "transactions:changed"
	// EventNotification shows a toast.
	EventNotification = "show-notification"
)

// NotificationType selects the toast style.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Errors stay on screen longer than confirmations.
var toastDuration = map[NotificationType]time.Duration{
	NotificationSuccess: 3 * time.Second,
	NotificationError:   5 * time.Second,
}

// HTMXResponseBuilder collects the status, HX-Trigger events and HTML body
// of one reply and writes them in the right order.
type HTMXResponseBuilder struct {
	status int
	events map[string]any
	body   string
	html   bool
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{status: http.StatusOK, events: map[string]any{}}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger raises event on the client with detail as its payload.
func (b *HTMXResponseBuilder) Trigger(event string, detail any) *HTMXResponseBuilder {
	b.events[event] = detail
	return b
}

// TriggerTransactionsChanged announces a new collection version.
func (b *HTMXResponseBuilder) TriggerTransactionsChanged(version int64, total int) *HTMXResponseBuilder {
	return b.Trigger(EventTransactionsChanged, struct {
		Version int64 `json:"version"`
		Total   int   `json:"total"`
	}{version, total})
}

// Notify queues a toast of the given kind.
func (b *HTMXResponseBuilder) Notify(kind NotificationType, message string) *HTMXResponseBuilder {
	return b.Trigger(EventNotification, struct {
		Type     NotificationType `json:"type"`
		Message  string           `json:"message"`
		Duration int64            `json:"duration"`
	}{kind, message, toastDuration[kind].Milliseconds()})
}

func (b *HTMXResponseBuilder) NotifySuccess(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

func (b *HTMXResponseBuilder) NotifyError(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationError, message)
}

// BodyHTML sets an already rendered HTML body.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.body, b.html = html, true
	return b
}

// Write sends headers, status and body. Events that fail to encode are
// dropped rather than failing the response.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	if b.html {
		h.Set("Content-Type", "text/html; charset=utf-8")
	}
	if len(b.events) > 0 {
		if payload, err := json.Marshal(b.events); err == nil {
			h.Set("HX-Trigger", string(payload))
		}
	}
	w.WriteHeader(b.status)
	if b.body != "" {
		_, _ = w.Write([]byte(b.body))
	}
}

// ErrorResponse renders message, escaped, as an error block.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// ErrorNotice is an ErrorResponse that also raises an error toast.
func ErrorNotice(status int, message string) *HTMXResponseBuilder {
	return ErrorResponse(status, message).NotifyError(message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
