package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/reports"
	pkgAuth "github.com/angelmondragon/rutaventas-backend/pkg/auth"
	"github.com/angelmondragon/rutaventas-backend/pkg/auth/session"
	"github.com/angelmondragon/rutaventas-backend/pkg/config"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/angelmondragon/rutaventas-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubClientService struct {
	clients.Service
}

func (stubClientService) List(ctx context.Context, input clients.ListInput) (pagination.Page[clients.ClientDTO], error) {
	return pagination.NewPage(input.Params, 0, []clients.ClientDTO{}), nil
}

type stubReportService struct {
	reports.Service
}

func (stubReportService) Generate(ctx context.Context, req reports.Request) (*reports.ReportFileDTO, error) {
	return &reports.ReportFileDTO{UUID: "abc"}, nil
}

type routerFixture struct {
	cfg      *config.Config
	handler  http.Handler
	registry *prometheus.Registry
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		Media: config.MediaConfig{Root: t.TempDir(), PublicBaseURL: "/media", MaxUploadMB: 1},
	}
}

func newTestRouter(t *testing.T) routerFixture {
	t.Helper()
	cfg := testConfig(t)
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: "debug", Output: io.Discard})
	registry := prometheus.NewRegistry()
	handler := NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionManager{},
		registry,
		metrics.NewHTTPMetrics(registry),
		nil,
		nil,
		stubClientService{},
		nil,
		nil,
		nil,
		nil,
		nil,
		nil,
		stubReportService{},
	)
	return routerFixture{cfg: cfg, handler: handler, registry: registry}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "tester",
		Role:     role,
		JTI:      session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	fx := newTestRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := serve(fx.handler, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	fx := newTestRouter(t)
	resp := serve(fx.handler, httptest.NewRequest(http.MethodGet, "/api/clientes", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	fx := newTestRouter(t)
	token := buildToken(t, fx.cfg, enums.UserRoleSeller)
	for _, path := range []string{"/api/clientes", "/api/clientes/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := serve(fx.handler, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestReportsDoNotRequireJWT(t *testing.T) {
	fx := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/reportes/", strings.NewReader(`{"tipo":"clientes"}`))
	resp := serve(fx.handler, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestMetricsExposeRoutePatterns(t *testing.T) {
	fx := newTestRouter(t)
	token := buildToken(t, fx.cfg, enums.UserRoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/api/clientes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	serve(fx.handler, req)

	resp := serve(fx.handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "rutaventas_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
	if !strings.Contains(body, `route="/api/clientes`) {
		t.Fatalf("expected route pattern label, got:\n%s", body)
	}
}

func TestMediaFilesAreServed(t *testing.T) {
	fx := newTestRouter(t)
	dir := filepath.Join(fx.cfg.Media.Root, "evidencias")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "foto.txt"), []byte("hola"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp := serve(fx.handler, httptest.NewRequest(http.MethodGet, "/media/evidencias/foto.txt", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Body.String() != "hola" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}
