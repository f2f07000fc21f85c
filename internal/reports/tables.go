package reports

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

type align int

const (
	alignLeft align = iota
	alignRight
)

// Column is a table heading drawn at Offset points from the left margin.
type Column struct {
	Label  string
	Offset float64
	Align  align
}

// Table is what a report type renders: headings, rows and summary lines.
type Table struct {
	Columns []Column
	Rows    [][]string
	Summary []string
}

const noRowsText = "Sin registros para los filtros indicados."

type builder func(ctx context.Context, r *Repository, req Request, f filters) (Table, error)

var builders = map[string]builder{
	TypeClients:    clientsTable,
	TypeProducts:   productsTable,
	TypeSellers:    sellersTable,
	TypeRoutes:     routesTable,
	TypeSales:      salesTable,
	TypeHistory:    historyTable,
	TypeComparison: comparisonTable,
}

func unknownTable(raw string) Table {
	return Table{
		Columns: []Column{{Label: "Información"}},
		Rows:    [][]string{{fmt.Sprintf("Tipo de reporte '%s' no implementado.", raw)}},
	}
}

func clientsTable(ctx context.Context, r *Repository, _ Request, f filters) (Table, error) {
	rows, err := r.Clients(ctx, f.str("estatus", "estatus_credito"))
	if err != nil {
		return Table{}, err
	}
	t := Table{Columns: []Column{
		{Label: "NIT"},
		{Label: "Nombre", Offset: 90},
		{Label: "Estatus", Offset: 300},
		{Label: "Correo", Offset: 380},
	}}
	for _, c := range rows {
		t.Rows = append(t.Rows, []string{c.NIT, clip(c.Name, 28), c.CreditStatus, clip(deref(c.Email), 32)})
	}
	t.Summary = []string{fmt.Sprintf("Total clientes: %d", len(rows))}
	return t, nil
}

func productsTable(ctx context.Context, r *Repository, _ Request, f filters) (Table, error) {
	rows, err := r.Products(ctx, f.str("presentacion"))
	if err != nil {
		return Table{}, err
	}
	t := Table{Columns: []Column{
		{Label: "Código"},
		{Label: "Descripción", Offset: 80},
		{Label: "Presentación", Offset: 300},
		{Label: "Precio", Offset: 460, Align: alignRight},
	}}
	for _, p := range rows {
		t.Rows = append(t.Rows, []string{p.Code, clip(p.Description, 30), p.Packaging, p.UnitPrice.StringFixed(2)})
	}
	t.Summary = []string{fmt.Sprintf("Total productos: %d", len(rows))}
	return t, nil
}

func sellersTable(ctx context.Context, r *Repository, _ Request, f filters) (Table, error) {
	rows, err := r.Sellers(ctx, f.intValue("nivel_min"))
	if err != nil {
		return Table{}, err
	}
	t := Table{Columns: []Column{
		{Label: "DPI"},
		{Label: "Nombre", Offset: 120},
		{Label: "Sueldo", Offset: 360, Align: alignRight},
		{Label: "Éxito", Offset: 460, Align: alignRight},
	}}
	for _, s := range rows {
		rate := 0
		if s.SuccessRate != nil {
			rate = *s.SuccessRate
		}
		t.Rows = append(t.Rows, []string{s.DPI, clip(s.Name, 26), s.Salary.StringFixed(2), fmt.Sprintf("%d%%", rate)})
	}
	t.Summary = []string{fmt.Sprintf("Total vendedores: %d", len(rows))}
	return t, nil
}

func routesTable(ctx context.Context, r *Repository, req Request, f filters) (Table, error) {
	dates := f.dateRange(req, []string{"desde", "fecha_desde"}, []string{"hasta", "fecha_hasta"})
	rows, err := r.Routes(ctx, dates, f.str("dpi_vendedor"))
	if err != nil {
		return Table{}, err
	}
	t := Table{Columns: []Column{
		{Label: "Ruta", Offset: 30, Align: alignRight},
		{Label: "Fecha", Offset: 90},
		{Label: "Nombre", Offset: 200},
		{Label: "Vendedor", Offset: 360},
		{Label: "KM", Offset: 440, Align: alignRight},
		{Label: "Plan (min)", Offset: 510, Align: alignRight},
		{Label: "Real (min)", Offset: 580, Align: alignRight},
	}}
	for _, route := range rows {
		seller := "-"
		if route.Seller != nil {
			seller = clip(route.Seller.Name, 24)
		}
		km := decimal.Zero
		if route.EstimatedKM != nil {
			km = *route.EstimatedKM
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(route.ID, 10),
			route.Date.Format("2006-01-02"),
			clip(deref(route.Name), 24),
			seller,
			km.StringFixed(2),
			minutes(route.PlannedMinutes),
			minutes(route.ActualMinutes),
		})
	}
	t.Summary = []string{fmt.Sprintf("Total rutas: %d", len(rows))}
	return t, nil
}

func salesTable(ctx context.Context, r *Repository, req Request, f filters) (Table, error) {
	rows, err := r.Sales(ctx, f.dateRange(req, []string{"desde"}, []string{"hasta"}), f.str("nit_cliente"))
	if err != nil {
		return Table{}, err
	}
	nits := make([]string, 0, len(rows))
	for _, s := range rows {
		nits = append(nits, s.ClientNIT)
	}
	names, err := r.ClientNames(ctx, nits)
	if err != nil {
		return Table{}, err
	}

	t := Table{Columns: []Column{
		{Label: "Fecha"},
		{Label: "Cliente", Offset: 120},
		{Label: "Total Q", Offset: 360, Align: alignRight},
		{Label: "Ruta", Offset: 440, Align: alignRight},
	}}
	total := decimal.Zero
	for _, s := range rows {
		total = total.Add(s.Total)
		route := "-"
		if s.RouteID != nil {
			route = strconv.FormatInt(*s.RouteID, 10)
		}
		t.Rows = append(t.Rows, []string{
			s.Date.Format("2006-01-02"),
			clip(nameOr(names, s.ClientNIT), 24),
			s.Total.StringFixed(2),
			route,
		})
	}
	t.Summary = []string{
		fmt.Sprintf("Total ventas: %d", len(rows)),
		"Monto acumulado: Q" + total.StringFixed(2),
	}
	return t, nil
}

func historyTable(ctx context.Context, r *Repository, req Request, f filters) (Table, error) {
	rows, err := r.History(ctx, f.dateRange(req, []string{"desde"}, []string{"hasta"}), f.str("dpi_vendedor"))
	if err != nil {
		return Table{}, err
	}
	nits := make([]string, 0, len(rows))
	dpis := make([]string, 0, len(rows))
	for _, h := range rows {
		nits = append(nits, h.ClientNIT)
		dpis = append(dpis, h.SellerDPI)
	}
	clients, err := r.ClientNames(ctx, nits)
	if err != nil {
		return Table{}, err
	}
	sellers, err := r.SellerNames(ctx, dpis)
	if err != nil {
		return Table{}, err
	}

	t := Table{Columns: []Column{
		{Label: "Fecha"},
		{Label: "Cliente", Offset: 110},
		{Label: "Vendedor", Offset: 260},
		{Label: "Total Q", Offset: 430, Align: alignRight},
		{Label: "Resultado", Offset: 520},
	}}
	total := decimal.Zero
	for _, h := range rows {
		total = total.Add(h.SaleTotal)
		outcome := deref(h.VisitOutcome)
		if outcome == "" {
			outcome = "-"
		}
		t.Rows = append(t.Rows, []string{
			h.SaleDate.Format("2006-01-02"),
			clip(nameOr(clients, h.ClientNIT), 20),
			clip(nameOr(sellers, h.SellerDPI), 18),
			h.SaleTotal.StringFixed(2),
			clip(outcome, 10),
		})
	}
	t.Summary = []string{
		fmt.Sprintf("Total registros historial: %d", len(rows)),
		"Total facturado: Q" + total.StringFixed(2),
	}
	return t, nil
}

func comparisonTable(ctx context.Context, r *Repository, req Request, f filters) (Table, error) {
	rows, err := r.Routes(ctx, f.dateRange(req, []string{"desde"}, []string{"hasta"}), f.str("dpi_vendedor"))
	if err != nil {
		return Table{}, err
	}
	ids := make([]int64, 0, len(rows))
	for _, route := range rows {
		ids = append(ids, route.ID)
	}
	visits, err := r.ArchivedVisitMinutes(ctx, ids)
	if err != nil {
		return Table{}, err
	}
	type acc struct {
		sum   decimal.Decimal
		count int64
	}
	byRoute := make(map[int64]*acc, len(ids))
	for _, v := range visits {
		a, ok := byRoute[v.RouteID]
		if !ok {
			a = &acc{}
			byRoute[v.RouteID] = a
		}
		a.sum = a.sum.Add(decimal.NewFromInt(int64(v.Minutes)))
		a.count++
	}

	t := Table{Columns: []Column{
		{Label: "Ruta", Offset: 30, Align: alignRight},
		{Label: "Fecha", Offset: 90},
		{Label: "Vendedor", Offset: 200},
		{Label: "Plan (min)", Offset: 360, Align: alignRight},
		{Label: "Real (min)", Offset: 440, Align: alignRight},
		{Label: "Prom Hist (min)", Offset: 520, Align: alignRight},
	}}
	for _, route := range rows {
		seller := "-"
		if route.Seller != nil {
			seller = clip(route.Seller.Name, 20)
		}
		avg := "-"
		if a, ok := byRoute[route.ID]; ok && a.count > 0 {
			avg = a.sum.Div(decimal.NewFromInt(a.count)).StringFixed(1)
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(route.ID, 10),
			route.Date.Format("2006-01-02"),
			seller,
			minutes(route.PlannedMinutes),
			minutes(route.ActualMinutes),
			avg,
		})
	}
	t.Summary = []string{fmt.Sprintf("Total rutas analizadas: %d", len(rows))}
	return t, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nameOr(names map[string]string, key string) string {
	if name, ok := names[key]; ok {
		return name
	}
	return key
}

// minutes prints "-" for missing or zero values.
func minutes(v *int) string {
	if v == nil || *v == 0 {
		return "-"
	}
	return strconv.Itoa(*v)
}
