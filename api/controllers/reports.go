package controllers

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/rutaventas-backend/api/responses"
	"github.com/angelmondragon/rutaventas-backend/api/validators"
	"github.com/angelmondragon/rutaventas-backend/internal/reports"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
)

// ReportGenerate renders a PDF report and returns its download handle.
func ReportGenerate(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "report")
			return
		}
		var body reports.Request
		if r.ContentLength != 0 {
			if err := validators.DecodeJSON(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		file, err := svc.Generate(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCreated(w, file)
	}
}

func ReportDownload(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "report")
			return
		}
		id, err := pathString(r, "uuid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		download, err := svc.Open(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer download.File.Close()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
		http.ServeContent(w, r, download.FileName, download.ModTime, download.File)
	}
}
