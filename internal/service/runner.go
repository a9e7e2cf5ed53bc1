// Package service drives bulk actions over the configured identifier
// list and aggregates the per-identifier outcomes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/metrics"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/model"
)

var (
	// ErrInvalidAction indicates the configured action is not lock or delete
	ErrInvalidAction = errors.New("invalid action, must be 'lock' or 'delete'")
	// ErrEmptyIdentifierList indicates there is nothing to process
	ErrEmptyIdentifierList = errors.New("identifier list must not be empty")
)

// BatchRunner applies one action to every configured identifier in
// order, collecting per-identifier outcomes into a report. Individual
// lookup or action failures never abort the run; only a failed
// authentication does.
type BatchRunner struct {
	api         UserAPI
	identifiers []string
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewBatchRunner creates a runner over the given identifier list.
func NewBatchRunner(api UserAPI, identifiers []string, m *metrics.Metrics, logger *zap.Logger) *BatchRunner {
	return &BatchRunner{
		api:         api,
		identifiers: identifiers,
		metrics:     m,
		logger:      logger.With(zap.String("run_id", uuid.New().String())),
	}
}

// Run processes the whole identifier list and returns the batch report.
// The action is validated once up front; the identifier list must be
// non-empty; credentials are verified before the first user is touched.
func (r *BatchRunner) Run(ctx context.Context, action model.Action, dryRun bool) (*model.BatchReport, error) {
	if !action.Valid() {
		return nil, ErrInvalidAction
	}
	if len(r.identifiers) == 0 {
		return nil, fmt.Errorf("%w: set USER_ID_ARRAY or an identifier file", ErrEmptyIdentifierList)
	}

	// Fail fast on bad credentials before touching any user.
	if _, err := r.api.Authenticate(ctx); err != nil {
		return nil, err
	}

	r.metrics.SetIdentifiersTotal(len(r.identifiers))
	report := model.NewBatchReport(action, dryRun)

	mode := "EXECUTE"
	if dryRun {
		mode = "DRY-RUN"
	}

	for _, identifier := range r.identifiers {
		r.logger.Info("processing identifier",
			zap.String("mode", mode),
			zap.String("action", strings.ToUpper(string(action))),
			zap.String("identifier", identifier),
		)

		userID, ok := r.api.ResolveUserID(ctx, identifier)
		if !ok {
			report.Failed = append(report.Failed, model.OutcomeRecord{
				Identifier: identifier,
				Reason:     model.ReasonNotFound,
			})
			r.metrics.RecordOutcome(string(action), model.ReasonNotFound)
			continue
		}

		if dryRun {
			report.Processed = append(report.Processed, model.OutcomeRecord{
				Identifier: identifier,
				UserID:     userID,
				Action:     action,
				Status:     model.StatusDryRun,
			})
			r.metrics.RecordOutcome(string(action), model.StatusDryRun)
			continue
		}

		var succeeded bool
		switch action {
		case model.ActionLock:
			succeeded = r.api.LockUser(ctx, userID)
		case model.ActionDelete:
			succeeded = r.api.DeleteUser(ctx, userID)
		}

		record := model.OutcomeRecord{
			Identifier: identifier,
			UserID:     userID,
			Action:     action,
		}
		if succeeded {
			record.Status = model.StatusSuccess
			report.Processed = append(report.Processed, record)
		} else {
			record.Status = model.StatusFailed
			report.Failed = append(report.Failed, record)
		}
		r.metrics.RecordOutcome(string(action), record.Status)
	}

	report.Finalize()

	r.logger.Info("run finished",
		zap.String("action", string(action)),
		zap.Bool("dry_run", dryRun),
		zap.Int("processed", report.ProcessedCount),
		zap.Int("failed", report.FailedCount),
	)
	return report, nil
}
