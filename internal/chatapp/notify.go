package chatapp

import "go.uber.org/zap"

// Severity classifies a notification for the presentation layer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notifier receives user-facing event notifications after notable
// operations. The delivery medium is up to the implementation; the
// core only produces (title, body, severity) triples.
type Notifier interface {
	Notify(title, body string, severity Severity)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title, body string, severity Severity)

func (f NotifierFunc) Notify(title, body string, severity Severity) {
	f(title, body, severity)
}

// NewLogNotifier returns a Notifier that writes events to the logger.
func NewLogNotifier(log *zap.Logger) Notifier {
	return NotifierFunc(func(title, body string, severity Severity) {
		log.Info("notification",
			zap.String("title", title),
			zap.String("body", body),
			zap.String("severity", string(severity)))
	})
}

// NopNotifier discards all notifications.
func NopNotifier() Notifier {
	return NotifierFunc(func(string, string, Severity) {})
}
