package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solecart/api/middleware"
	cartsvc "github.com/angelmondragon/solecart/internal/cart"
	checkoutsvc "github.com/angelmondragon/solecart/internal/checkout"
	internalorders "github.com/angelmondragon/solecart/internal/orders"
	"github.com/angelmondragon/solecart/internal/session"
	"github.com/angelmondragon/solecart/pkg/config"
	"github.com/angelmondragon/solecart/pkg/enums"
	"github.com/angelmondragon/solecart/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCart struct {
	calls []string
}

func (s *stubCart) ok(name string) cartsvc.Outcome {
	s.calls = append(s.calls, name)
	return cartsvc.Outcome{Kind: enums.OutcomeOK}
}

func (s *stubCart) IncreaseQuantity(context.Context, cartsvc.Session, string) cartsvc.Outcome {
	return s.ok("increase")
}

func (s *stubCart) DecreaseQuantity(context.Context, cartsvc.Session, string) cartsvc.Outcome {
	return s.ok("decrease")
}

func (s *stubCart) RemoveItem(context.Context, cartsvc.Session, string, cartsvc.Confirmer) cartsvc.Outcome {
	return s.ok("remove")
}

func (s *stubCart) ClearCart(context.Context, cartsvc.Session, cartsvc.Confirmer) cartsvc.Outcome {
	return s.ok("clear")
}

func (s *stubCart) UpdateVariant(context.Context, cartsvc.Session, string, string, string) cartsvc.Outcome {
	return s.ok("variant")
}

func (s *stubCart) FetchProductDetailsForLine(context.Context, cartsvc.Session, string) cartsvc.Outcome {
	return s.ok("product")
}

func (s *stubCart) Refresh(context.Context, cartsvc.Session) cartsvc.Outcome {
	return s.ok("refresh")
}

type stubOrders struct{}

func (stubOrders) UpdateStatus(context.Context, string, enums.OrderStatus) internalorders.Outcome {
	return internalorders.Outcome{Kind: enums.OutcomeOK}
}

const testSecret = "router-secret"

func newTestRouter(t *testing.T) (http.Handler, *stubCart) {
	router, cart, _ := newTestRouterWithSessions(t)
	return router, cart
}

func newTestRouterWithSessions(t *testing.T) (http.Handler, *stubCart, *session.Registry) {
	t.Helper()
	checkout, err := checkoutsvc.NewService(logger.Nop(), "")
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	cart := &stubCart{}
	cfg := &config.Config{App: config.AppConfig{Env: "test"}, JWT: config.JWTConfig{Secret: testSecret}}
	sessions := session.NewRegistry(nil)
	router := NewRouter(cfg, logger.Nop(), Dependencies{
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Sessions: sessions,
		Cart:     cart,
		Checkout: checkout,
		Orders:   stubOrders{},
		Gatherer: prometheus.NewRegistry(),
	})
	return router, cart, sessions
}

func TestRoutesReachControllers(t *testing.T) {
	router, cart := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/cart", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cart/lines/l1/increase", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cart/lines/l1/decrease", "", http.StatusOK},
		{http.MethodDelete, "/api/v1/cart/lines/l1?confirm=true", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cart/clear?confirm=true", "", http.StatusOK},
		{http.MethodGet, "/api/v1/cart/lines/l1/product", "", http.StatusOK},
		{http.MethodPut, "/api/v1/cart/lines/l1/variant", `{"size":"10","color":"red"}`, http.StatusOK},
		{http.MethodDelete, "/api/v1/cart/selection", "", http.StatusOK},
		{http.MethodPost, "/api/v1/checkout/stage", "", http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/checkout/stage", "", http.StatusOK},
		{http.MethodPost, "/api/v1/orders/o1/status", `{"status":"shipped"}`, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d got %d: %s", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}

	want := []string{"refresh", "increase", "decrease", "remove", "clear", "product", "variant"}
	if len(cart.calls) != len(want) {
		t.Fatalf("expected calls %v got %v", want, cart.calls)
	}
	for i := range want {
		if cart.calls[i] != want[i] {
			t.Fatalf("expected calls %v got %v", want, cart.calls)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestForgedTokenCannotReachAnotherUsersSession(t *testing.T) {
	router, _, sessions := newTestRouterWithSessions(t)
	price := decimal.NewFromInt(1000)
	victim := sessions.Get(middleware.UserSessionKey("victim"))
	victim.Store().Replace([]cartsvc.Line{
		{ID: "L1", Product: cartsvc.ProductRef{ID: "p1"}, Quantity: 1, ProductName: "Victim Secret Shoe", ProductPrice: &price},
	})

	stage := func(header, value string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/stage", nil)
		req.Header.Set(header, value)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	genuine, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "victim"}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/selection/L1", strings.NewReader(`{"selected":true}`))
	req.Header.Set("Authorization", "Bearer "+genuine)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("select: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := stage("Authorization", "Bearer "+genuine); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Victim Secret Shoe") {
		t.Fatalf("owner should stage their own line, got %d: %s", rec.Code, rec.Body.String())
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "victim"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}
	attempts := map[string][2]string{
		"unsigned token":  {"Authorization", "Bearer " + forged},
		"session header":  {middleware.SessionKeyHeader, "victim"},
		"prefixed header": {middleware.SessionKeyHeader, middleware.UserSessionKey("victim")},
	}
	for name, h := range attempts {
		rec := stage(h[0], h[1])
		if strings.Contains(rec.Body.String(), "Victim Secret Shoe") {
			t.Fatalf("%s reached the victim's session: %d %s", name, rec.Code, rec.Body.String())
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected empty-session 400 got %d", name, rec.Code)
		}
	}
}
