package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/database/series"
)

// SeriesVerifier reports series whose counter disagrees with their books.
type SeriesVerifier interface {
	CountMismatches() ([]series.Mismatch, error)
}

// MaintenanceReporter records the outcome of a maintenance run.
type MaintenanceReporter interface {
	LogMaintenance(action, description string, metadata map[string]any, err error)
}

// VerifySeriesTask compares every series counter with the number of books
// in the series. Disagreements are reported, never repaired.
type VerifySeriesTask struct {
	RequestedBy uint `json:"requested_by,omitempty"`
}

// Config returns the queue configuration for series verification tasks.
func (t VerifySeriesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "verify_series",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// VerifySeriesProcessor creates a processor function for VerifySeriesTask.
// reporter may be nil.
func VerifySeriesProcessor(verifier SeriesVerifier, reporter MaintenanceReporter) backlite.QueueProcessor[VerifySeriesTask] {
	return func(ctx context.Context, task VerifySeriesTask) error {
		if verifier == nil {
			return fmt.Errorf("series verifier not configured")
		}

		mismatches, err := verifier.CountMismatches()
		if err != nil {
			if reporter != nil {
				reporter.LogMaintenance("series_verify", "Series verification failed", nil, err)
			}
			return fmt.Errorf("verify series: %w", err)
		}

		for _, m := range mismatches {
			log.Warn().
				Uint("series_id", m.SeriesID).
				Str("series", m.Name).
				Int("counter", m.Counter).
				Int("books", m.Books).
				Msg("Series counter disagrees with its books")
		}
		log.Info().Int("mismatches", len(mismatches)).Uint("requested_by", task.RequestedBy).Msg("Series verification complete")

		if reporter != nil {
			reporter.LogMaintenance(
				"series_verify",
				fmt.Sprintf("%d series counters disagree with their books", len(mismatches)),
				map[string]any{"mismatches": mismatches, "requested_by": task.RequestedBy},
				nil,
			)
		}
		return nil
	}
}

// NewVerifySeriesQueue creates a backlite queue for series verification tasks.
func NewVerifySeriesQueue(verifier SeriesVerifier, reporter MaintenanceReporter) backlite.Queue {
	return backlite.NewQueue(VerifySeriesProcessor(verifier, reporter))
}
