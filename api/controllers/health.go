package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/solecart/api/responses"
	"github.com/angelmondragon/solecart/pkg/config"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
)

const (
	envHeader    = "X-Solecart-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Breaker reports the circuit state of a remote service client.
type Breaker interface {
	Name() string
	BreakerState() gobreaker.State
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails when the queue database or Redis is unreachable. An
// open remote breaker is reported but does not fail readiness, since cart
// changes queue while the remote is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP Pinger, breakers ...Breaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := []struct {
			name string
			p    Pinger
		}{{"database", dbP}, {"redis", redisP}}
		for _, check := range checks {
			if check.p == nil {
				continue
			}
			if err := check.p.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable").
						WithDetails(map[string]any{"check": check.name}))
				return
			}
		}

		remotes := map[string]string{}
		for _, b := range breakers {
			if b != nil {
				remotes[b.Name()] = b.BreakerState().String()
			}
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "remotes": remotes})
	}
}
