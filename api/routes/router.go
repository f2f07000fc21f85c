package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/rutaventas-backend/api/controllers"
	"github.com/angelmondragon/rutaventas-backend/api/middleware"
	"github.com/angelmondragon/rutaventas-backend/internal/auth"
	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/internal/evidence"
	"github.com/angelmondragon/rutaventas-backend/internal/history"
	products "github.com/angelmondragon/rutaventas-backend/internal/products"
	"github.com/angelmondragon/rutaventas-backend/internal/reports"
	routeplanner "github.com/angelmondragon/rutaventas-backend/internal/routes"
	"github.com/angelmondragon/rutaventas-backend/internal/sales"
	"github.com/angelmondragon/rutaventas-backend/internal/sellers"
	"github.com/angelmondragon/rutaventas-backend/pkg/auth/session"
	"github.com/angelmondragon/rutaventas-backend/pkg/config"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/angelmondragon/rutaventas-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	sessionManager session.AccessSessionChecker,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	catalogService catalog.Service,
	clientService clients.Service,
	productService products.Service,
	sellerService sellers.Service,
	routeService routeplanner.Service,
	saleService sales.Service,
	historyService history.Service,
	evidenceService evidence.Service,
	reportService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		chimiddleware.StripSlashes,
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	maxUpload := cfg.Media.MaxUploadBytes()

	deps := map[string]controllers.Pinger{"database": dbP}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, deps, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.Media.Root != "" && strings.HasPrefix(cfg.Media.PublicBaseURL, "/") {
		prefix := cfg.Media.PublicBaseURL
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Media.Root))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if redisClient != nil {
				r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
			} else {
				r.Post("/login", controllers.AuthLogin(authService, logg))
			}
			r.Post("/refresh", controllers.AuthRefresh(authService, logg))
			r.Post("/logout", controllers.AuthLogout(authService, logg))
		})

		r.Route("/reportes", func(r chi.Router) {
			r.Post("/", controllers.ReportGenerate(reportService, logg))
			r.Get("/descargar/{uuid}", controllers.ReportDownload(reportService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

			r.Route("/catalogos", func(r chi.Router) {
				r.Get("/estatus-credito", controllers.CatalogCreditStatuses(catalogService, logg))
				r.Get("/presentaciones", controllers.CatalogPackagings(catalogService, logg))
				r.Get("/resultados-visita", controllers.CatalogVisitOutcomes(catalogService, logg))
				r.Get("/tiempos-cliente", controllers.CatalogTimeAllowances(catalogService, logg))
			})

			r.Route("/clientes", func(r chi.Router) {
				r.Get("/", controllers.ClientList(clientService, logg))
				r.Post("/", controllers.ClientCreate(clientService, logg))
				r.Get("/{nit}", controllers.ClientGet(clientService, logg))
				r.Put("/{nit}", controllers.ClientUpdate(clientService, logg))
				r.Patch("/{nit}", controllers.ClientPatch(clientService, logg))
				r.Delete("/{nit}", controllers.ClientDelete(clientService, logg))
			})
			r.Post("/importaciones/clientes/csv", controllers.ClientImportCSV(clientService, maxUpload, logg))

			r.Route("/productos", func(r chi.Router) {
				r.Get("/", controllers.ProductList(productService, logg))
				r.Post("/", controllers.ProductCreate(productService, logg))
				r.Get("/{codigo}", controllers.ProductGet(productService, logg))
				r.Put("/{codigo}", controllers.ProductUpdate(productService, logg))
				r.Patch("/{codigo}", controllers.ProductPatch(productService, logg))
				r.Delete("/{codigo}", controllers.ProductDelete(productService, logg))
			})

			r.Route("/vendedores", func(r chi.Router) {
				r.Get("/", controllers.SellerList(sellerService, logg))
				r.Post("/", controllers.SellerCreate(sellerService, logg))
				r.Get("/{dpi}", controllers.SellerGet(sellerService, logg))
				r.Put("/{dpi}", controllers.SellerUpdate(sellerService, logg))
				r.Patch("/{dpi}", controllers.SellerPatch(sellerService, logg))
				r.Delete("/{dpi}", controllers.SellerDelete(sellerService, logg))
				r.Get("/{dpi}/visitas", controllers.SellerVisits(sellerService, logg))
				r.Post("/{dpi}/visitas", controllers.SellerRecordVisit(sellerService, logg))
			})

			r.Route("/rutas", func(r chi.Router) {
				r.Get("/", controllers.RouteList(routeService, logg))
				r.Post("/", controllers.RouteCreate(routeService, logg))
				r.Get("/{id}", controllers.RouteGet(routeService, logg))
				r.Put("/{id}", controllers.RouteUpdate(routeService, logg))
				r.Patch("/{id}", controllers.RoutePatch(routeService, logg))
				r.Delete("/{id}", controllers.RouteDelete(routeService, logg))
				r.Get("/{id}/recorridos", controllers.RouteRecorridos(routeService, logg))
				r.Post("/{id}/recorridos", controllers.RouteRecordRecorrido(routeService, logg))
				r.Get("/{id}/comparacion-tiempos", controllers.RouteCompareTimes(routeService, logg))
			})

			r.Route("/ventas", func(r chi.Router) {
				r.Get("/", controllers.SaleList(saleService, logg))
				r.Post("/", controllers.SaleCreate(saleService, logg))
				r.Get("/{id}", controllers.SaleGet(saleService, logg))
				r.Post("/{id}/historial", controllers.SaleArchive(historyService, logg))
			})
			r.Get("/historial", controllers.HistoryList(historyService, logg))

			r.Route("/evidencias", func(r chi.Router) {
				r.Get("/", controllers.EvidenceList(evidenceService, logg))
				r.Post("/", controllers.EvidenceCreate(evidenceService, maxUpload, logg))
				r.Post("/subir", controllers.EvidenceUpload(evidenceService, maxUpload, logg))
				r.Get("/{id}", controllers.EvidenceGet(evidenceService, logg))
				r.Put("/{id}", controllers.EvidenceUpdate(evidenceService, maxUpload, logg))
				r.Patch("/{id}", controllers.EvidenceUpdate(evidenceService, maxUpload, logg))
				r.Delete("/{id}", controllers.EvidenceDelete(evidenceService, logg))
			})
		})
	})

	return r
}
