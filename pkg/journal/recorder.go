package journal

import (
	"context"
	"strings"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/fileutils"
	"github.com/shishobooks/organize-ebooks/pkg/models"
)

const maxReasonLen = 1024

// Recorder reports each file outcome to the log and, when a journal service
// is configured, persists it under the run's ID.
type Recorder struct {
	runID    string
	service  *Service
	log      logger.Logger
	outcomes []*models.Outcome
}

// NewRecorder creates a Recorder for one run. service may be nil, in which
// case outcomes are only logged and kept in memory.
func NewRecorder(ctx context.Context, runID string, service *Service) *Recorder {
	return &Recorder{
		runID:   runID,
		service: service,
		log:     logger.FromContext(ctx).Data(logger.Data{"run_id": runID}),
	}
}

// Record logs the outcome with the same OK, ERR and SKIP markers the tool has
// always printed. A failure to persist is logged, not returned, so a broken
// journal never stops a run.
func (r *Recorder) Record(ctx context.Context, outcome *models.Outcome) {
	outcome.RunID = r.runID
	if outcome.Reason != nil && len(*outcome.Reason) > maxReasonLen {
		reason := truncateMiddle(*outcome.Reason, maxReasonLen)
		outcome.Reason = &reason
	}

	data := logger.Data{
		"path":    fileutils.DisplayPath(outcome.Path),
		"outcome": outcome.Kind,
	}
	if outcome.Destination != nil {
		data["to"] = fileutils.DisplayPath(*outcome.Destination)
	}
	if outcome.Reason != nil {
		data["reason"] = *outcome.Reason
	}
	if outcome.ISBNs != nil {
		data["isbns"] = *outcome.ISBNs
	}

	switch outcome.Kind {
	case models.OutcomeCorruptMoved, models.OutcomeCorruptReportedOnly:
		r.log.Error("ERR", data)
	case models.OutcomeSkipped, models.OutcomePamphletSkipped:
		r.log.Warn("SKIP", data)
	default:
		r.log.Info("OK", data)
	}

	r.outcomes = append(r.outcomes, outcome)

	if r.service == nil {
		return
	}
	if err := r.service.CreateOutcome(ctx, outcome); err != nil {
		r.log.Err(err).Warn("failed to write outcome to journal", logger.Data{"path": outcome.Path})
	}
}

// Outcomes returns everything recorded so far, in order.
func (r *Recorder) Outcomes() []*models.Outcome {
	return r.outcomes
}

// RunID is the identifier every outcome of this run is stored under.
func (r *Recorder) RunID() string {
	return r.runID
}

func truncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	half := (maxLen - 5) / 2
	return strings.ToValidUTF8(s[:half], "") + " ... " + strings.ToValidUTF8(s[len(s)-half:], "")
}
