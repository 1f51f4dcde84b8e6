package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Remote is a named source of entries.
type Remote struct {
	Name string `json:"name" validate:"required,excludesall=\"\n"`
	URL  string `json:"url" validate:"required,url"`
}

// Validate checks the remote name and URL.
func (r Remote) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid remote %q: %w", r.Name, err)
	}
	return nil
}

// Outcome is the terminal state of a merge run.
type Outcome string

const (
	OutcomeNoop      Outcome = "noop"      // nothing was missing
	OutcomeCompleted Outcome = "completed" // every missing entry was fetched
	OutcomePartial   Outcome = "partial"   // some entries failed
	OutcomeStopped   Outcome = "stopped"   // interrupted before finishing
)

// Run is one journaled merge execution.
type Run struct {
	ID         string    `json:"id"`
	Remote     string    `json:"remote"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Missing    int       `json:"missing"`
	Fetched    int       `json:"fetched"`
	Failed     int       `json:"failed"`
	Outcome    Outcome   `json:"outcome"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
