package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxTotal = decimal.New(1, 12)

// Service records sales and their line items.
type Service interface {
	List(ctx context.Context, input ListInput) (pagination.Page[SaleDTO], error)
	Get(ctx context.Context, id int64) (*SaleDTO, error)
	Create(ctx context.Context, input SaleInput) (*SaleDTO, error)
	// CreateTx validates and inserts the sale inside a caller-owned transaction.
	CreateTx(ctx context.Context, tx *gorm.DB, input SaleInput) (*models.Sale, error)
	ListByRoute(ctx context.Context, routeID int64) ([]SaleDTO, error)
	// Load returns the stored sale with its lines, for callers that need the model.
	Load(ctx context.Context, tx *gorm.DB, id int64) (*models.Sale, error)
}

type ListInput struct {
	Filters ListFilters
	Params  pagination.Params
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Page[SaleDTO], error) {
	rows, count, err := s.repo.List(ctx, input.Filters, input.Params)
	if err != nil {
		return pagination.Page[SaleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return pagination.NewPage(input.Params, count, fromModels(rows)), nil
}

func (s *service) Get(ctx context.Context, id int64) (*SaleDTO, error) {
	sale, err := s.Load(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(sale)
	return &dto, nil
}

func (s *service) Load(ctx context.Context, tx *gorm.DB, id int64) (*models.Sale, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	sale, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "venta no encontrada")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) ListByRoute(ctx context.Context, routeID int64) ([]SaleDTO, error) {
	rows, err := s.repo.ListByRoute(ctx, routeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list route sales")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input SaleInput) (*SaleDTO, error) {
	var created *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.CreateTx(ctx, tx, input)
		if err != nil {
			return err
		}
		created = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(created)
	return &dto, nil
}

func (s *service) CreateTx(ctx context.Context, tx *gorm.DB, input SaleInput) (*models.Sale, error) {
	repo := s.repo.WithTx(tx)
	sale, err := s.build(ctx, repo, input)
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, sale); err != nil {
		return nil, mapWriteError(err)
	}
	return sale, nil
}

// build validates input against storage and returns the sale ready to insert.
func (s *service) build(ctx context.Context, repo *Repository, input SaleInput) (*models.Sale, error) {
	input.ClientNIT = strings.TrimSpace(input.ClientNIT)
	errs := validation.Struct(input)

	if errs["nit_cliente"] == nil {
		exists, err := repo.ClientExists(ctx, input.ClientNIT)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client")
		}
		if !exists {
			errs.Addf("nit_cliente", "el cliente '%s' no existe", input.ClientNIT)
		}
	}
	if input.RouteID != nil {
		exists, err := repo.RouteExists(ctx, *input.RouteID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check route")
		}
		if !exists {
			errs.Addf("id_ruta", "la ruta '%d' no existe", *input.RouteID)
		}
	}

	lines, err := s.buildLines(ctx, repo, input.Lines, errs)
	if err != nil {
		return nil, err
	}

	var total decimal.Decimal
	if len(input.Lines) > 0 {
		for _, line := range lines {
			total = total.Add(line.Subtotal())
		}
	} else {
		switch {
		case input.Total == nil:
			errs.Add("total", "indique el total o el detalle de la venta")
		case input.Total.IsNegative():
			errs.Add("total", "debe ser mayor o igual a 0")
		case !input.Total.Equal(input.Total.Round(2)):
			errs.Add("total", "admite como máximo 2 decimales")
		default:
			total = *input.Total
		}
	}
	if total.GreaterThanOrEqual(maxTotal) {
		errs.Add("total", "excede el monto permitido")
	}

	if err := errs.Err("datos de venta inválidos"); err != nil {
		return nil, err
	}

	date := s.now()
	if input.Date != nil {
		date = input.Date.UTC()
	}
	return &models.Sale{
		Date:      date,
		ClientNIT: input.ClientNIT,
		RouteID:   input.RouteID,
		Total:     total,
		Lines:     lines,
	}, nil
}

func (s *service) buildLines(ctx context.Context, repo *Repository, inputs []SaleLineInput, errs validation.Errors) ([]models.SaleLine, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	codes := make([]string, 0, len(inputs))
	for i := range inputs {
		inputs[i].ProductCode = strings.TrimSpace(inputs[i].ProductCode)
		codes = append(codes, inputs[i].ProductCode)
	}
	products, err := repo.FindProducts(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	lines := make([]models.SaleLine, 0, len(inputs))
	seen := make(map[int]struct{}, len(inputs))
	missing := map[string]struct{}{}
	for i, in := range inputs {
		number := i + 1
		if in.Line != nil {
			number = *in.Line
		}
		for field, messages := range validation.Struct(in) {
			for _, msg := range messages {
				errs.Addf("detalles", "línea %d, %s: %s", number, field, msg)
			}
		}
		if _, dup := seen[number]; dup {
			errs.Addf("detalles", "la línea %d está repetida", number)
		}
		seen[number] = struct{}{}

		product, ok := products[in.ProductCode]
		if !ok && in.ProductCode != "" {
			missing[in.ProductCode] = struct{}{}
		}

		price := product.UnitPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
			switch {
			case price.IsNegative():
				errs.Addf("detalles", "línea %d, precio_unitario: debe ser mayor o igual a 0", number)
			case !price.Equal(price.Round(2)):
				errs.Addf("detalles", "línea %d, precio_unitario: admite como máximo 2 decimales", number)
			}
		}

		code := in.ProductCode
		lines = append(lines, models.SaleLine{
			Line:        number,
			ProductCode: &code,
			Quantity:    in.Quantity,
			UnitPrice:   price,
		})
	}

	if len(missing) > 0 {
		sorted := make([]string, 0, len(missing))
		for code := range missing {
			sorted = append(sorted, code)
		}
		sort.Strings(sorted)
		for _, code := range sorted {
			errs.Addf("detalles", "Producto '%s' no existe", code)
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Line < lines[j].Line })
	return lines, nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, "detalle_venta_venta_linea"):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de venta inválidos").
			WithDetails(map[string]any{"detalles": []string{"los números de línea deben ser únicos"}})
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "referencia inválida en la venta")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale")
}
