// Package events streams decoded aviation records to a JSON Lines log.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"goadsb/internal/adsb"
	"goadsb/internal/logging"
)

// Event is one line of the JSON event stream.
type Event struct {
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source"`
	Record    *adsb.Record `json:"record"`
}

// Logger appends one JSON object per decoded record to a rotating file.
type Logger struct {
	rotator *logging.Rotator
	logger  *logrus.Logger
	mu      sync.Mutex

	eventsLogged uint64
	writeErrors  uint64
}

// NewLogger creates a JSON event logger on top of a rotator.
func NewLogger(rotator *logging.Rotator, logger *logrus.Logger) *Logger {
	return &Logger{
		rotator: rotator,
		logger:  logger,
	}
}

// LogRecord appends a decoded record to the event stream. Write failures
// are counted and logged, never propagated to the decode path.
func (l *Logger) LogRecord(record *adsb.Record, source string) {
	if record == nil {
		return
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		Source:    source,
		Record:    record,
	}

	line, err := json.Marshal(event)
	if err != nil {
		l.mu.Lock()
		l.writeErrors++
		l.mu.Unlock()
		l.logger.WithError(err).Error("Failed to marshal event")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, err := l.rotator.Writer()
	if err != nil {
		l.writeErrors++
		l.logger.WithError(err).Error("No event log writer available")
		return
	}

	if _, err := w.Write(append(line, '\n')); err != nil {
		l.writeErrors++
		l.logger.WithError(err).Error("Failed to write event")
		return
	}

	l.eventsLogged++
}

// Stats returns a snapshot of the event logger counters.
func (l *Logger) Stats() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]float64{
		"events_logged": float64(l.eventsLogged),
		"write_errors":  float64(l.writeErrors),
	}
}

// ResetStats clears the event logger counters.
func (l *Logger) ResetStats() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eventsLogged = 0
	l.writeErrors = 0
}
