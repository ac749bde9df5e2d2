package events

import (
	"encoding/json"
	"time"
)

const (
	TypeJobsIngested       = "jobs_ingested"
	TypeApplicationChanged = "application_changed"
	TypePollStarted        = "poll_started"
	TypePollFinished       = "poll_finished"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// JobsIngested is the payload of TypeJobsIngested.
type JobsIngested struct {
	Source   string `json:"source"`
	Inserted int    `json:"inserted"`
	Merged   int    `json:"merged"`
	Skipped  int    `json:"skipped"`
}

// ApplicationChanged is the payload of TypeApplicationChanged. Status is
// empty when the application was deleted.
type ApplicationChanged struct {
	JobID  string `json:"job_id"`
	Status string `json:"status,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// Publisher receives encoded events. Publish must not block on slow consumers.
type Publisher interface {
	Publish(evt string)
}

type nop struct{}

func (nop) Publish(string) {}

// Nop discards every event.
var Nop Publisher = nop{}

type multi []Publisher

func (m multi) Publish(evt string) {
	for _, p := range m {
		p.Publish(evt)
	}
}

// Multi fans every event out to all non-nil publishers.
func Multi(ps ...Publisher) Publisher {
	var out multi
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return Nop
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// PollFinished is the payload of TypePollFinished.
type PollFinished struct {
	Inserted int      `json:"inserted"`
	Merged   int      `json:"merged"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
}
