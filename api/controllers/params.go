package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/api/responses"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

func pathInt64(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "identificador inválido").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func pathString(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "identificador requerido").WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

func writeCreated(w http.ResponseWriter, data any) {
	responses.WriteSuccessStatus(w, http.StatusCreated, data)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
