package reports

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Report types after synonym normalization.
const (
	TypeClients    = "clientes"
	TypeProducts   = "productos"
	TypeSellers    = "vendedores"
	TypeRoutes     = "rutas"
	TypeSales      = "ventas"
	TypeHistory    = "historial"
	TypeComparison = "comparacion"
)

var typeSynonyms = map[string]string{
	"clientes":            TypeClients,
	"listado_clientes":    TypeClients,
	"productos":           TypeProducts,
	"listado_productos":   TypeProducts,
	"vendedores":          TypeSellers,
	"listado_vendedores":  TypeSellers,
	"rutas":               TypeRoutes,
	"listado_rutas":       TypeRoutes,
	"ventas":              TypeSales,
	"historial":           TypeHistory,
	"historial_ventas":    TypeHistory,
	"comparacion":         TypeComparison,
	"comparacion_tiempos": TypeComparison,
}

// Request is the body of a report generation call.
type Request struct {
	Type      string         `json:"tipo"`
	StartDate string         `json:"fecha_inicio"`
	EndDate   string         `json:"fecha_fin"`
	Filters   map[string]any `json:"filtros"`
}

// NormalizeType lower-cases raw and resolves synonyms. Unknown values are
// returned lower-cased with ok false. An empty value means clientes.
func NormalizeType(raw string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return TypeClients, true
	}
	if canonical, ok := typeSynonyms[t]; ok {
		return canonical, true
	}
	return t, false
}

// fileLabel keeps a type usable inside a file name.
func fileLabel(t string) string {
	label := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}, t)
	if label == "" {
		return "desconocido"
	}
	if len(label) > 40 {
		label = label[:40]
	}
	return label
}

// titleCase upper-cases the first letter of every alphabetic run.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

type filters map[string]any

// str returns the first non-empty value among keys.
func (f filters) str(keys ...string) string {
	for _, key := range keys {
		v, ok := f[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case float64:
			s = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			s = fmt.Sprint(val)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// intValue returns nil when the value is missing or not an integer.
func (f filters) intValue(key string) *int {
	raw := f.str(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// describe renders the filters for the document header.
func (f filters) describe() string {
	if len(f) == 0 {
		return "N/A"
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f[k]))
	}
	return strings.Join(parts, ", ")
}

// parseDay accepts a date or an RFC 3339 timestamp; anything else is ignored.
func parseDay(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

// dateRange picks the range from filter aliases, falling back to the request
// dates.
func (f filters) dateRange(req Request, fromKeys, toKeys []string) DateRange {
	from := f.str(fromKeys...)
	if from == "" {
		from = req.StartDate
	}
	to := f.str(toKeys...)
	if to == "" {
		to = req.EndDate
	}
	return DateRange{From: parseDay(from), To: parseDay(to)}
}
