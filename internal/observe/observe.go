// Reports what the network access layer is doing
package observe

import "github.com/sirupsen/logrus"

// Fields carries structured context attached to an observation
type Fields map[string]any

// Observer receives severity-leveled reports. Calls are fire-and-forget and
// must never influence the caller's control flow.
type Observer interface {
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
}

// Logrus forwards observations to a logrus logger
type Logrus struct {
	logger logrus.FieldLogger
}

// NewLogrus creates an observer writing to the given logger
func NewLogrus(logger logrus.FieldLogger) *Logrus {
	return &Logrus{logger: logger}
}

func (l *Logrus) Info(msg string, fields Fields) {
	l.logger.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *Logrus) Warn(msg string, fields Fields) {
	l.logger.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *Logrus) Error(msg string, fields Fields) {
	l.logger.WithFields(logrus.Fields(fields)).Error(msg)
}

// Nop discards every observation
type Nop struct{}

func (Nop) Info(string, Fields)  {}
func (Nop) Warn(string, Fields)  {}
func (Nop) Error(string, Fields) {}
