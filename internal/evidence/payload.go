package evidence

import (
	"io"
	"strconv"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
)

// Field aliases accepted on evidence payloads, alias first.
var aliases = [][2]string{
	{"nit_cliente", "cliente"},
	{"id_ruta", "ruta"},
	{"id_venta", "venta"},
}

// Upload is an image file received with the request.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Ref is an optional reference. Set reports whether the field was supplied;
// a nil Value clears the reference.
type Ref[T any] struct {
	Set   bool
	Value *T
}

// EvidenceInput carries only the fields present in the request.
type EvidenceInput struct {
	URL         *string
	Description *string
	Client      Ref[string]
	Route       Ref[int64]
	Sale        Ref[int64]
	Image       *Upload
}

// ParseFields builds an input from a flat field map, JSON or multipart alike.
// The alias keys nit_cliente, id_ruta and id_venta fill cliente, ruta and
// venta when those are absent.
func ParseFields(fields map[string]string, image *Upload) (EvidenceInput, validation.Errors) {
	resolved := make(map[string]string, len(fields))
	for k, v := range fields {
		resolved[k] = v
	}
	for _, pair := range aliases {
		alias, canonical := pair[0], pair[1]
		if v, ok := resolved[alias]; ok && strings.TrimSpace(v) != "" && strings.TrimSpace(resolved[canonical]) == "" {
			resolved[canonical] = v
		}
		delete(resolved, alias)
	}

	errs := validation.Errors{}
	input := EvidenceInput{Image: image}
	if v, ok := resolved["url"]; ok {
		input.URL = blankToNil(v)
	}
	if v, ok := resolved["descripcion"]; ok {
		input.Description = blankToNil(v)
	}
	if v, ok := resolved["cliente"]; ok {
		input.Client = Ref[string]{Set: true, Value: blankToNil(v)}
	}
	if v, ok := resolved["ruta"]; ok {
		input.Route = parseRef(v, "ruta", errs)
	}
	if v, ok := resolved["venta"]; ok {
		input.Sale = parseRef(v, "venta", errs)
	}
	return input, errs
}

func parseRef(raw, field string, errs validation.Errors) Ref[int64] {
	v := strings.TrimSpace(raw)
	if v == "" || v == "null" {
		return Ref[int64]{Set: true}
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		errs.Add(field, "debe ser un número entero")
		return Ref[int64]{}
	}
	return Ref[int64]{Set: true, Value: &id}
}

func blankToNil(v string) *string {
	t := strings.TrimSpace(v)
	if t == "" || t == "null" {
		return nil
	}
	return &t
}
