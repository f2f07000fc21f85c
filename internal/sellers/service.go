package sellers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service manages sellers and their visit log.
type Service interface {
	List(ctx context.Context, params pagination.Params) (pagination.Page[SellerDTO], error)
	Get(ctx context.Context, dpi string) (*SellerDTO, error)
	Create(ctx context.Context, input SellerInput) (*SellerDTO, error)
	Update(ctx context.Context, dpi string, input SellerInput) (*SellerDTO, error)
	Patch(ctx context.Context, dpi string, patch SellerPatch) (*SellerDTO, error)
	Delete(ctx context.Context, dpi string) error
	ListVisits(ctx context.Context, dpi string) ([]VisitDTO, error)
	RecordVisit(ctx context.Context, dpi string, input VisitInput) (*VisitDTO, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("seller repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[SellerDTO], error) {
	rows, count, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[SellerDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sellers")
	}
	out := make([]SellerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return pagination.NewPage(params, count, out), nil
}

func (s *service) Get(ctx context.Context, dpi string) (*SellerDTO, error) {
	seller, err := s.load(ctx, dpi)
	if err != nil {
		return nil, err
	}
	return FromModel(seller), nil
}

func (s *service) Create(ctx context.Context, input SellerInput) (*SellerDTO, error) {
	input = normalize(input)
	if err := s.validate(ctx, input, nil); err != nil {
		return nil, err
	}
	seller := &models.Seller{}
	apply(input, seller)
	if err := s.repo.Create(ctx, seller); err != nil {
		return nil, mapWriteError(err, "insert seller")
	}
	return FromModel(seller), nil
}

func (s *service) Update(ctx context.Context, dpi string, input SellerInput) (*SellerDTO, error) {
	seller, err := s.load(ctx, dpi)
	if err != nil {
		return nil, err
	}
	input.DPI = seller.DPI
	return s.save(ctx, seller, input)
}

func (s *service) Patch(ctx context.Context, dpi string, patch SellerPatch) (*SellerDTO, error) {
	seller, err := s.load(ctx, dpi)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, seller, patch.merge(seller))
}

func (s *service) save(ctx context.Context, seller *models.Seller, input SellerInput) (*SellerDTO, error) {
	input = normalize(input)
	if err := s.validate(ctx, input, seller); err != nil {
		return nil, err
	}
	apply(input, seller)
	if err := s.repo.Save(ctx, seller); err != nil {
		return nil, mapWriteError(err, "update seller")
	}
	return FromModel(seller), nil
}

func (s *service) Delete(ctx context.Context, dpi string) error {
	deleted, err := s.repo.Delete(ctx, dpi)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "No se pudo eliminar el vendedor porque tiene rutas asignadas.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete seller")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendedor no encontrado")
	}
	return nil
}

func (s *service) ListVisits(ctx context.Context, dpi string) ([]VisitDTO, error) {
	if _, err := s.load(ctx, dpi); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListVisits(ctx, dpi)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list visits")
	}
	out := make([]VisitDTO, 0, len(rows))
	for i := range rows {
		out = append(out, visitFromModel(&rows[i]))
	}
	return out, nil
}

// RecordVisit appends a visit for the seller in the path.
func (s *service) RecordVisit(ctx context.Context, dpi string, input VisitInput) (*VisitDTO, error) {
	seller, err := s.load(ctx, dpi)
	if err != nil {
		return nil, err
	}

	input.ClientNIT = strings.TrimSpace(input.ClientNIT)
	input.Result = strings.ToUpper(strings.TrimSpace(input.Result))
	errs := validation.Struct(input)
	if errs["resultado"] == nil {
		if _, err := enums.ParseVisitResult(input.Result); err != nil {
			errs.Addf("resultado", "'%s' no es un resultado válido", input.Result)
		}
	}
	if errs["nit_cliente"] == nil {
		exists, err := s.repo.ClientExists(ctx, input.ClientNIT)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client")
		}
		if !exists {
			errs.Addf("nit_cliente", "el cliente '%s' no existe", input.ClientNIT)
		}
	}
	if err := errs.Err("datos de visita inválidos"); err != nil {
		return nil, err
	}

	products := input.DeliveredProducts
	if products == nil {
		products = []any{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "productos_entregados inválidos")
	}
	date := s.now()
	if input.Date != nil {
		date = input.Date.UTC()
	}

	visit := &models.VisitLog{
		SellerDPI:         seller.DPI,
		ClientNIT:         input.ClientNIT,
		Date:              date,
		Result:            input.Result,
		DeliveredProducts: datatypes.JSON(raw),
		PhotoURL:          strings.TrimSpace(input.PhotoURL),
		Notes:             input.Notes,
	}
	if err := s.repo.CreateVisit(ctx, visit); err != nil {
		return nil, mapWriteError(err, "insert visit")
	}
	dto := visitFromModel(visit)
	return &dto, nil
}

func (s *service) load(ctx context.Context, dpi string) (*models.Seller, error) {
	seller, err := s.repo.FindByDPI(ctx, dpi)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendedor no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	return seller, nil
}

func (s *service) validate(ctx context.Context, input SellerInput, existing *models.Seller) error {
	errs := validation.Struct(input)
	switch {
	case input.Salary.IsNegative():
		errs.Add("sueldo", "debe ser mayor o igual a 0")
	case !input.Salary.Equal(input.Salary.Round(2)):
		errs.Add("sueldo", "admite como máximo 2 decimales")
	}

	if existing == nil && errs["dpi"] == nil {
		if _, err := s.repo.FindByDPI(ctx, input.DPI); err == nil {
			errs.Add("dpi", "ya existe un vendedor con este DPI")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check seller dpi")
		}
	}
	if input.Email != nil && errs["correo_electronico"] == nil {
		exclude := ""
		if existing != nil {
			exclude = existing.DPI
		}
		taken, err := s.repo.EmailTaken(ctx, *input.Email, exclude)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check seller email")
		}
		if taken {
			errs.Add("correo_electronico", "ya existe un vendedor con este correo electrónico")
		}
	}
	return errs.Err("datos de vendedor inválidos")
}

// normalize trims the name before validation so length is checked on the
// stored value.
func normalize(in SellerInput) SellerInput {
	in.DPI = strings.TrimSpace(in.DPI)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = optional(in.Email)
	in.Phone = optional(in.Phone)
	return in
}

func apply(in SellerInput, s *models.Seller) {
	s.DPI = in.DPI
	s.Name = in.Name
	s.Email = in.Email
	s.Phone = in.Phone
	s.Salary = in.Salary
	s.SuccessRate = in.SuccessRate
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func mapWriteError(err error, step string) error {
	switch {
	case db.IsUniqueViolation(err, "correo_electronico"):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de vendedor inválidos").
			WithDetails(map[string]any{"correo_electronico": []string{"ya existe un vendedor con este correo electrónico"}})
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de vendedor inválidos").
			WithDetails(map[string]any{"dpi": []string{"ya existe un vendedor con este DPI"}})
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "referencia inválida")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
