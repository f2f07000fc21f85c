package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxPrice is the first value that no longer fits numeric(12,2).
var maxPrice = decimal.New(1, 10)

// Service exposes product catalog operations.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (pagination.Page[ProductDTO], error)
	GetProduct(ctx context.Context, code string) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, code string, input ProductInput) (*ProductDTO, error)
	PatchProduct(ctx context.Context, code string, patch ProductPatch) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, code string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// service implements the product service.
type service struct {
	repo     *Repository
	dbClient txRunner
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (pagination.Page[ProductDTO], error) {
	rows, count, err := s.repo.List(ctx, input.Filters, input.Pagination)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return pagination.NewPage(input.Pagination, count, out), nil
}

func (s *service) GetProduct(ctx context.Context, code string) (*ProductDTO, error) {
	product, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// CreateProduct validates the payload and inserts the product.
func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	input = normalize(input)
	if err := s.validate(ctx, input, true); err != nil {
		return nil, err
	}
	product := &models.Product{}
	apply(input, product)
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, mapWriteError(err, "db: insert product")
	}
	return NewProductDTO(product), nil
}

// UpdateProduct replaces every mutable field; the code is immutable.
func (s *service) UpdateProduct(ctx context.Context, code string, input ProductInput) (*ProductDTO, error) {
	existing, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	input.Code = existing.Code
	return s.save(ctx, existing, input)
}

func (s *service) PatchProduct(ctx context.Context, code string, patch ProductPatch) (*ProductDTO, error) {
	existing, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, existing, patch.merge(existing))
}

func (s *service) save(ctx context.Context, existing *models.Product, input ProductInput) (*ProductDTO, error) {
	input = normalize(input)
	if err := s.validate(ctx, input, false); err != nil {
		return nil, err
	}
	apply(input, existing)
	if err := s.repo.UpdateProduct(ctx, existing); err != nil {
		return nil, mapWriteError(err, "db: update product")
	}
	return NewProductDTO(existing), nil
}

// DeleteProduct removes the product inside a transaction so referencing sale
// lines are detached atomically.
func (s *service) DeleteProduct(ctx context.Context, code string) error {
	var deleted bool
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeleteProduct(ctx, code)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
	}
	return nil
}

func (s *service) load(ctx context.Context, code string) (*models.Product, error) {
	product, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) validate(ctx context.Context, input ProductInput, creating bool) error {
	errs := validation.Struct(input)
	errs.Merge(validatePrice(input.UnitPrice))

	if creating && errs["codigo"] == nil {
		if _, err := s.repo.FindByCode(ctx, input.Code); err == nil {
			errs.Add("codigo", "ya existe un producto con este código")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product code")
		}
	}
	if errs["presentacion_id"] == nil {
		exists, err := s.repo.PackagingExists(ctx, input.PackagingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check packaging")
		}
		if !exists {
			errs.Addf("presentacion_id", "la presentación '%s' no existe", input.PackagingID)
		}
	}
	return errs.Err("datos de producto inválidos")
}

func validatePrice(price decimal.Decimal) validation.Errors {
	errs := validation.Errors{}
	switch {
	case price.IsNegative():
		errs.Add("precio_unitario", "debe ser mayor o igual a 0")
	case !price.Equal(price.Round(2)):
		errs.Add("precio_unitario", "admite como máximo 2 decimales")
	case price.GreaterThanOrEqual(maxPrice):
		errs.Add("precio_unitario", "excede el máximo permitido")
	}
	return errs
}

func normalize(in ProductInput) ProductInput {
	in.Code = strings.TrimSpace(in.Code)
	in.Description = strings.TrimSpace(in.Description)
	in.PackagingID = strings.TrimSpace(in.PackagingID)
	if in.Color != nil {
		c := strings.TrimSpace(*in.Color)
		if c == "" {
			in.Color = nil
		} else {
			in.Color = &c
		}
	}
	return in
}

func apply(in ProductInput, p *models.Product) {
	p.Code = in.Code
	p.Description = in.Description
	p.Color = in.Color
	p.UnitPrice = in.UnitPrice
	p.Packaging = in.PackagingID
}

func mapWriteError(err error, step string) error {
	switch {
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de producto inválidos").
			WithDetails(map[string]any{"codigo": []string{"ya existe un producto con este código"}})
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de producto inválidos").
			WithDetails(map[string]any{"presentacion_id": []string{"la presentación no existe"}})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
