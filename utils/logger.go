package utils

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

// runEvent is one structured line in a run's timeline. Lines carry the
// run id so a whole automation run can be grepped out of mixed output.
type runEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	RunID     string                 `json:"run_id,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// EventLogger emits automation events as JSON lines. Services keep
// their plain log output; this logger is for the API boundary, where a
// machine-readable run timeline is worth the structure.
type EventLogger struct {
	out *log.Logger
}

func NewEventLogger(w io.Writer) *EventLogger {
	return &EventLogger{out: log.New(w, "", 0)}
}

// Events is the process-wide event logger.
var Events = NewEventLogger(os.Stdout)

// Event logs an event that is not tied to a specific run.
func (l *EventLogger) Event(event string, fields map[string]interface{}) {
	l.emit(runEvent{Level: "info", Event: event, Fields: fields})
}

// RunEvent logs an event in a run's timeline.
func (l *EventLogger) RunEvent(runID, event string, fields map[string]interface{}) {
	l.emit(runEvent{Level: "info", Event: event, RunID: runID, Fields: fields})
}

// RunError logs a failure in a run's timeline.
func (l *EventLogger) RunError(runID, event string, err error, fields map[string]interface{}) {
	e := runEvent{Level: "error", Event: event, RunID: runID, Fields: fields}
	if err != nil {
		e.Error = err.Error()
	}
	l.emit(e)
}

func (l *EventLogger) emit(e runEvent) {
	e.Timestamp = time.Now()
	line, err := json.Marshal(e)
	if err != nil {
		log.Printf("could not marshal event %q: %v", e.Event, err)
		return
	}
	l.out.Println(string(line))
}
