package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/rutaventas-backend/api/responses"
	"github.com/angelmondragon/rutaventas-backend/api/validators"
	"github.com/angelmondragon/rutaventas-backend/internal/history"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
)

// HistoryList filters by dpi_vendedor, id_ruta and the day range desde/hasta.
func HistoryList(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "history")
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		routeID, err := validators.ParseQueryInt64(r, "id_ruta", "ruta")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := queryDate(r, "desde", "fecha_desde")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := queryDate(r, "hasta", "fecha_hasta")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), history.ListInput{
			Filters: history.ListFilters{
				SellerDPI: validators.QueryString(r, 13, "dpi_vendedor", "vendedor"),
				RouteID:   routeID,
				From:      from,
				To:        to,
			},
			Params: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func queryDate(r *http.Request, keys ...string) (*time.Time, error) {
	raw := validators.QueryString(r, 32, keys...)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fecha inválida, use AAAA-MM-DD").WithDetails(map[string]any{"field": keys[0]})
	}
	return &t, nil
}
