package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

// Submission is one stored survey. Token is unique across all submissions.
type Submission struct {
	ID        uuid.UUID    `db:"id" json:"-"`
	Token     uuid.UUID    `db:"token" json:"-"`
	Stats     stats.Record `db:"stats" json:"stats"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}
