package controllers

import (
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/angelmondragon/rutaventas-backend/api/responses"
	"github.com/angelmondragon/rutaventas-backend/api/validators"
	"github.com/angelmondragon/rutaventas-backend/internal/evidence"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
)

var evidenceFileFields = []string{"archivo", "imagen"}

func EvidenceList(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "evidence")
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), evidence.ListInput{
			Client: validators.QueryString(r, 9, "nit_cliente", "cliente"),
			Route:  validators.QueryString(r, 20, "id_ruta", "ruta"),
			Sale:   validators.QueryString(r, 20, "id_venta", "venta"),
			Params: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func EvidenceGet(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "evidence")
			return
		}
		id, err := pathInt64(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// EvidenceCreate accepts a JSON body or a multipart form with the image in
// archivo or imagen.
func EvidenceCreate(svc evidence.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return evidenceWrite(svc, maxBytes, logg, func(r *http.Request, input evidence.EvidenceInput) (*evidence.EvidenceDTO, error) {
		return svc.Create(r.Context(), input)
	})
}

// EvidenceUpload is EvidenceCreate with the image required.
func EvidenceUpload(svc evidence.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return evidenceWrite(svc, maxBytes, logg, func(r *http.Request, input evidence.EvidenceInput) (*evidence.EvidenceDTO, error) {
		return svc.Upload(r.Context(), input)
	})
}

// EvidenceUpdate serves PUT and PATCH alike: only supplied keys change.
func EvidenceUpdate(svc evidence.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "evidence")
			return
		}
		id, err := pathInt64(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, cleanup, err := readEvidenceInput(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()
		item, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func EvidenceDelete(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "evidence")
			return
		}
		id, err := pathInt64(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w)
	}
}

func evidenceWrite(svc evidence.Service, maxBytes int64, logg *logger.Logger, do func(*http.Request, evidence.EvidenceInput) (*evidence.EvidenceDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "evidence")
			return
		}
		input, cleanup, err := readEvidenceInput(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()
		item, err := do(r, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCreated(w, item)
	}
}

// readEvidenceInput flattens either body shape into string fields. The
// returned cleanup closes the uploaded file and removes multipart temp files.
func readEvidenceInput(w http.ResponseWriter, r *http.Request, maxBytes int64) (evidence.EvidenceInput, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var raw map[string]any
		if err := validators.DecodeJSON(r, &raw); err != nil {
			return evidence.EvidenceInput{}, noop, err
		}
		input, errs := evidence.ParseFields(jsonFields(raw), nil)
		if err := errs.Err("datos inválidos"); err != nil {
			return evidence.EvidenceInput{}, noop, err
		}
		return input, noop, nil
	}

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return evidence.EvidenceInput{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "formulario inválido")
	}
	form := r.MultipartForm
	cleanup := func() { _ = form.RemoveAll() }

	fields := make(map[string]string, len(form.Value))
	for key, values := range form.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	var upload *evidence.Upload
	var file multipart.File
	for _, key := range evidenceFileFields {
		headers := form.File[key]
		if len(headers) == 0 {
			continue
		}
		f, err := headers[0].Open()
		if err != nil {
			cleanup()
			return evidence.EvidenceInput{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "No se pudo leer el archivo.")
		}
		file = f
		upload = &evidence.Upload{Filename: headers[0].Filename, Body: f}
		break
	}
	if file != nil {
		removeForm := cleanup
		cleanup = func() {
			_ = file.Close()
			removeForm()
		}
	}

	input, errs := evidence.ParseFields(fields, upload)
	if err := errs.Err("datos inválidos"); err != nil {
		cleanup()
		return evidence.EvidenceInput{}, noop, err
	}
	return input, cleanup, nil
}

func jsonFields(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			out[key] = "null"
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		}
	}
	return out
}
