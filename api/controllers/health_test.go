package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/solecart/pkg/config"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/types"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubBreaker struct {
	state gobreaker.State
}

func (s stubBreaker) Name() string { return "cart" }
func (s stubBreaker) BreakerState() gobreaker.State { return s.state }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig())(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get(envHeader) != "test" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReadyReportsOpenBreakerWithoutFailing(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := HealthReady(testConfig(), nil, stubPinger{}, stubPinger{}, stubBreaker{state: gobreaker.StateOpen})
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Data struct {
			Status  string            `json:"status"`
			Remotes map[string]string `json:"remotes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Remotes["cart"] != "open" {
		t.Fatalf("expected open breaker reported, got %v", body.Data.Remotes)
	}
}

func TestHealthReadyFailsOnRedis(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := HealthReady(testConfig(), nil, stubPinger{}, stubPinger{err: errors.New("refused")})
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}
