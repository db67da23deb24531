// Package offline keeps cart mutations durable while the cart service is
// unreachable and replays them, in order, once it answers again.
package offline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/solecart/internal/cart"
	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/credentials"
	"github.com/angelmondragon/solecart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/angelmondragon/solecart/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const queuedMessage = "queued until the cart service is reachable"

type cartAPI interface {
	GetCart(ctx context.Context, token string) (remote.CartResponse, error)
	Apply(ctx context.Context, token string, m remote.Mutation) (remote.Ack, error)
}

type queueStore interface {
	queue
	Enqueue(ctx context.Context, owner string, m remote.Mutation) (models.PendingMutation, error)
	HasPending(ctx context.Context, owner string) (bool, error)
}

type cartCache interface {
	SaveCart(ctx context.Context, owner string, payload []byte, ttl time.Duration) error
	LoadCart(ctx context.Context, owner string) ([]byte, error)
}

type ServiceParams struct {
	API         cartAPI
	Queue       queueStore
	Cache       cartCache
	CacheTTL    time.Duration
	Logger      *logger.Logger
	Metrics     QueueRecorder
	MaxAttempts int
	FlushBatch  int
}

// Service is the offline-aware cart collaborator used by the cart handlers.
type Service struct {
	api      cartAPI
	queue    queueStore
	cache    cartCache
	cacheTTL time.Duration
	replayer *Replayer
	logg     *logger.Logger
	metrics  QueueRecorder
	fetches  singleflight.Group

	// writes counts finished mutations; it keys fetches so a pull requested
	// after a change never joins one that started before it.
	writes atomic.Uint64
}

var _ cart.CartService = (*Service)(nil)

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, errors.New("cart api is required")
	}
	if params.Queue == nil {
		return nil, errors.New("queue repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	replayer, err := NewReplayer(params.Queue, params.API, params.Logger, params.Metrics, params.MaxAttempts, params.FlushBatch)
	if err != nil {
		return nil, err
	}
	return &Service{
		api:      params.API,
		queue:    params.Queue,
		cache:    params.Cache,
		cacheTTL: params.CacheTTL,
		replayer: replayer,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// FetchCart replays the owner's queue, then pulls the cart. Concurrent pulls
// for the same owner share one upstream request unless a mutation finished
// between them. When the cart service is unreachable the cached cart is
// served with queued changes projected onto it.
func (s *Service) FetchCart(ctx context.Context, cred credentials.Credential) (cart.FetchResult, error) {
	owner := ownerOf(cred)
	if owner == "" {
		return s.fetch(ctx, cred, "")
	}

	key := owner + "#" + strconv.FormatUint(s.writes.Load(), 10)
	ch := s.fetches.DoChan(key, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), cred, owner)
	})
	select {
	case <-ctx.Done():
		return cart.FetchResult{}, pkgerrors.Wrap(pkgerrors.CodeSuperseded, ctx.Err(), "cart fetch cancelled")
	case res := <-ch:
		if res.Err != nil {
			return cart.FetchResult{}, res.Err
		}
		return res.Val.(cart.FetchResult), nil
	}
}

func (s *Service) fetch(ctx context.Context, cred credentials.Credential, owner string) (cart.FetchResult, error) {
	if owner != "" {
		release, err := s.replayer.hold(ctx, owner)
		if err != nil {
			return cart.FetchResult{}, err
		}
		_, err = s.flush(ctx, owner, cred.Token)
		release()
		if err != nil {
			if errors.Is(err, ErrStillOffline) {
				return s.fromCache(ctx, owner, err)
			}
			return cart.FetchResult{}, err
		}
	}

	resp, err := s.api.GetCart(ctx, cred.Token)
	if err != nil {
		if owner != "" && remote.IsConnectivity(err) {
			return s.fromCache(ctx, owner, err)
		}
		return cart.FetchResult{}, err
	}
	lines, err := cart.DecodeLines(resp.Items)
	if err != nil {
		return cart.FetchResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart payload unreadable")
	}
	if owner != "" && s.cache != nil {
		if err := s.cache.SaveCart(ctx, owner, resp.Items, s.cacheTTL); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "caching cart failed")
		}
	}
	return cart.FetchResult{Lines: lines, Offline: resp.Offline}, nil
}

// fromCache serves the last cached cart with pending mutations applied. With
// nothing cached the original connectivity error is returned.
func (s *Service) fromCache(ctx context.Context, owner string, cause error) (cart.FetchResult, error) {
	if s.cache == nil {
		return cart.FetchResult{}, cause
	}
	raw, err := s.cache.LoadCart(ctx, owner)
	if err != nil {
		if !errors.Is(err, redis.ErrNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "reading cached cart failed")
		}
		return cart.FetchResult{}, cause
	}
	lines, err := cart.DecodeLines(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cached cart unreadable")
		return cart.FetchResult{}, cause
	}

	rows, err := s.queue.Pending(ctx, owner, 0)
	if err != nil {
		return cart.FetchResult{}, fmt.Errorf("load pending mutations: %w", err)
	}
	pending := make([]remote.Mutation, 0, len(rows))
	for _, row := range rows {
		m, err := decodeRow(row)
		if err != nil {
			continue
		}
		pending = append(pending, m)
	}
	s.logg.Warn(s.logg.WithField(ctx, "pending", len(pending)), "serving cached cart while offline")
	return cart.FetchResult{Lines: Project(lines, pending), Offline: true}, nil
}

// Mutate sends m, or queues it when the cart service is unreachable or
// earlier changes for the same owner are still queued. Mutations and replays
// for one owner run one at a time so upstream sees them in order.
func (s *Service) Mutate(ctx context.Context, cred credentials.Credential, m remote.Mutation) (remote.Ack, error) {
	if err := m.Validate(); err != nil {
		return remote.Ack{}, err
	}
	owner := ownerOf(cred)
	if owner == "" {
		return s.api.Apply(ctx, cred.Token, m)
	}

	release, err := s.replayer.hold(ctx, owner)
	if err != nil {
		return remote.Ack{}, err
	}
	defer release()
	defer s.writes.Add(1)

	pending, err := s.queue.HasPending(ctx, owner)
	if err != nil {
		return remote.Ack{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check offline queue")
	}
	if pending {
		if _, err := s.flush(ctx, owner, cred.Token); err != nil {
			if errors.Is(err, ErrStillOffline) {
				return s.enqueue(ctx, owner, m)
			}
			return remote.Ack{}, err
		}
	}

	ack, err := s.api.Apply(ctx, cred.Token, m)
	if err != nil && remote.IsConnectivity(err) {
		return s.enqueue(ctx, owner, m)
	}
	return ack, err
}

func (s *Service) enqueue(ctx context.Context, owner string, m remote.Mutation) (remote.Ack, error) {
	row, err := s.queue.Enqueue(ctx, owner, m)
	if err != nil {
		return remote.Ack{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue cart change")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"seq": row.Seq, "kind": row.Kind.String()})
	s.logg.Warn(ctx, "cart mutation queued offline")
	if s.metrics != nil {
		s.metrics.ObserveQueue(row.Kind.String(), "queued")
	}
	return remote.Ack{Success: true, Offline: true, Message: queuedMessage}, nil
}

// flush replays owner's queue. The caller holds owner.
func (s *Service) flush(ctx context.Context, owner, token string) (FlushResult, error) {
	result, err := s.replayer.drain(ctx, owner, token)
	if result.Applied > 0 || result.Failed > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"applied": result.Applied, "failed": result.Failed})
		s.logg.Info(logCtx, "offline queue replayed")
	}
	if result.Failures != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", result.Failures.Error()), "queued cart changes rejected on replay")
	}
	return result, err
}

func ownerOf(cred credentials.Credential) string {
	return strings.TrimSpace(cred.Subject)
}
