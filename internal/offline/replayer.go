package offline

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
	"go.uber.org/multierr"
)

const (
	defaultMaxAttempts = 10
	defaultFlushBatch  = 50
)

// ErrStillOffline is returned by Flush when the cart service became
// unreachable mid-replay. Remaining rows stay pending.
var ErrStillOffline = errors.New("cart service still unreachable")

type queue interface {
	Pending(ctx context.Context, owner string, limit int) ([]models.PendingMutation, error)
	MarkApplied(ctx context.Context, id string) error
	MarkAttemptFailed(ctx context.Context, id string, cause error) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

type applier interface {
	Apply(ctx context.Context, token string, m remote.Mutation) (remote.Ack, error)
}

// QueueRecorder counts queue activity. *metrics.CartMetrics satisfies it.
type QueueRecorder interface {
	ObserveQueue(kind, event string)
}

// FlushResult summarizes one replay pass. Failures combines the errors of
// rows that became terminal during the pass.
type FlushResult struct {
	Applied  int
	Failed   int
	Failures error
}

// Replayer sends an owner's queued mutations to the cart service in order.
type Replayer struct {
	queue       queue
	api         applier
	logg        *logger.Logger
	metrics     QueueRecorder
	maxAttempts int
	batch       int
	owners      *ownerLocks
}

func NewReplayer(q queue, api applier, logg *logger.Logger, metrics QueueRecorder, maxAttempts, batch int) (*Replayer, error) {
	if q == nil {
		return nil, errors.New("queue repository is required")
	}
	if api == nil {
		return nil, errors.New("cart api is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if batch <= 0 {
		batch = defaultFlushBatch
	}
	return &Replayer{queue: q, api: api, logg: logg, metrics: metrics, maxAttempts: maxAttempts, batch: batch, owners: newOwnerLocks()}, nil
}

// Flush replays the owner's pending rows in seq order using token. It stops
// at the first connectivity failure (ErrStillOffline), credential rejection
// or cancellation; those rows stay pending. Any other failure makes the row
// terminal and replay continues with the next one. Replays for the same
// owner never overlap.
func (r *Replayer) Flush(ctx context.Context, owner, token string) (FlushResult, error) {
	release, err := r.hold(ctx, owner)
	if err != nil {
		return FlushResult{}, err
	}
	defer release()
	return r.drain(ctx, owner, token)
}

// hold waits until no replay or mutation for owner is in progress.
func (r *Replayer) hold(ctx context.Context, owner string) (func(), error) {
	release, err := r.owners.acquire(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSuperseded, err, "wait for offline queue")
	}
	return release, nil
}

// drain is Flush for a caller that already holds owner.
func (r *Replayer) drain(ctx context.Context, owner, token string) (FlushResult, error) {
	var result FlushResult
	for {
		rows, err := r.queue.Pending(ctx, owner, r.batch)
		if err != nil {
			return result, fmt.Errorf("load pending mutations: %w", err)
		}
		if len(rows) == 0 {
			return result, nil
		}

		for _, row := range rows {
			if stop, err := r.replayRow(ctx, row, token, &result); stop || err != nil {
				return result, err
			}
		}
		if len(rows) < r.batch {
			return result, nil
		}
	}
}

func (r *Replayer) replayRow(ctx context.Context, row models.PendingMutation, token string, result *FlushResult) (bool, error) {
	ctx = r.logg.WithMutationID(ctx, row.ID)

	m, err := decodeRow(row)
	if err != nil {
		return false, r.terminal(ctx, row, err, result)
	}

	_, err = r.api.Apply(ctx, token, m)
	switch {
	case err == nil:
		if markErr := r.queue.MarkApplied(ctx, row.ID); markErr != nil {
			return true, fmt.Errorf("mark mutation %s applied: %w", row.ID, markErr)
		}
		result.Applied++
		r.observe(row, "applied")
		return false, nil

	case remote.IsConnectivity(err):
		if row.AttemptCount+1 >= r.maxAttempts {
			if termErr := r.terminal(ctx, row, err, result); termErr != nil {
				return true, termErr
			}
			return true, ErrStillOffline
		}
		if markErr := r.queue.MarkAttemptFailed(ctx, row.ID, err); markErr != nil {
			return true, fmt.Errorf("record attempt for mutation %s: %w", row.ID, markErr)
		}
		r.observe(row, "deferred")
		return true, ErrStillOffline

	case errors.Is(err, context.Canceled),
		pkgerrors.CodeOf(err) == pkgerrors.CodeUnauthorized,
		pkgerrors.CodeOf(err) == pkgerrors.CodeSuperseded:
		return true, err

	default:
		return false, r.terminal(ctx, row, err, result)
	}
}

func (r *Replayer) terminal(ctx context.Context, row models.PendingMutation, cause error, result *FlushResult) error {
	if err := r.queue.MarkFailed(ctx, row.ID, cause); err != nil {
		return fmt.Errorf("mark mutation %s failed: %w", row.ID, err)
	}
	result.Failed++
	result.Failures = multierr.Append(result.Failures, fmt.Errorf("mutation %s (%s): %w", row.ID, row.Kind, cause))
	r.logg.Error(ctx, "queued cart mutation dropped", cause)
	r.observe(row, "failed")
	return nil
}

func (r *Replayer) observe(row models.PendingMutation, event string) {
	if r.metrics != nil {
		r.metrics.ObserveQueue(row.Kind.String(), event)
	}
}
