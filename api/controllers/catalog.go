package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/rutaventas-backend/api/responses"
	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
)

func catalogHandler[T any](svc catalog.Service, logg *logger.Logger, list func(catalog.Service, context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog")
			return
		}
		rows, err := list(svc, r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CatalogCreditStatuses(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, catalog.Service.CreditStatuses)
}

func CatalogPackagings(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, catalog.Service.Packagings)
}

func CatalogVisitOutcomes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, catalog.Service.VisitOutcomes)
}

func CatalogTimeAllowances(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogHandler(svc, logg, catalog.Service.TimeAllowances)
}
