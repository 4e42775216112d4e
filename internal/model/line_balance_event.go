package model

import "time"

// LineBalanceEvent is published on the event bus after a line balance write
// commits.
type LineBalanceEvent struct {
	StudyID  string    `json:"studyId"`
	TakeID   string    `json:"takeId,omitempty"`
	RecordID string    `json:"recordId,omitempty"`
	UserID   string    `json:"userId,omitempty"`
	Week     int       `json:"week,omitempty"`
	At       time.Time `json:"at"`
}
