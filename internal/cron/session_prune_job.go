package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart/pkg/logger"
)

const defaultSessionIdleTTL = 30 * time.Minute

type sessionPruner interface {
	Prune(ctx context.Context, ttl time.Duration) (int, error)
}

type SessionPruneJobParams struct {
	Logger   *logger.Logger
	Sessions sessionPruner
	IdleTTL  time.Duration
}

// NewSessionPruneJob drops session state that has been idle for IdleTTL.
func NewSessionPruneJob(params SessionPruneJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	ttl := params.IdleTTL
	if ttl <= 0 {
		ttl = defaultSessionIdleTTL
	}
	return &sessionPruneJob{logg: params.Logger, sessions: params.Sessions, ttl: ttl}, nil
}

type sessionPruneJob struct {
	logg     *logger.Logger
	sessions sessionPruner
	ttl      time.Duration
}

func (j *sessionPruneJob) Name() string { return "session-prune" }

func (j *sessionPruneJob) Run(ctx context.Context) error {
	removed, err := j.sessions.Prune(ctx, j.ttl)
	if err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	if removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "sessions_removed", removed), "idle sessions pruned")
	}
	return nil
}
