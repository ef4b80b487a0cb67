package entity

import "time"

// Result is the archived outcome of a finished session.
type Result struct {
	ID         string       `json:"id"`
	State      SessionState `json:"state"`
	FinishedAt time.Time    `json:"finished_at"`
}
