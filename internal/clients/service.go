package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"gorm.io/gorm"
)

// Service manages clients and their bulk import.
type Service interface {
	List(ctx context.Context, input ListInput) (pagination.Page[ClientDTO], error)
	Get(ctx context.Context, nit string) (*ClientDTO, error)
	Create(ctx context.Context, input ClientInput) (*ClientDTO, error)
	Update(ctx context.Context, nit string, input ClientInput) (*ClientDTO, error)
	Patch(ctx context.Context, nit string, patch ClientPatch) (*ClientDTO, error)
	Delete(ctx context.Context, nit string) error
	ImportCSV(ctx context.Context, file []byte) (*ImportResult, error)
}

type ListInput struct {
	NIT    string
	Params pagination.Params
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	metrics *metrics.OperationMetrics
	now     func() time.Time
}

func NewService(repo *Repository, tx txRunner, m *metrics.OperationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: m, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Page[ClientDTO], error) {
	rows, count, err := s.repo.List(ctx, input.NIT, input.Params)
	if err != nil {
		return pagination.Page[ClientDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	out := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return pagination.NewPage(input.Params, count, out), nil
}

func (s *service) Get(ctx context.Context, nit string) (*ClientDTO, error) {
	client, err := s.load(ctx, s.repo, nit)
	if err != nil {
		return nil, err
	}
	return FromModel(client), nil
}

func (s *service) Create(ctx context.Context, input ClientInput) (*ClientDTO, error) {
	input = input.normalized()
	errs, err := s.validate(ctx, s.repo, input, nil)
	if err != nil {
		return nil, err
	}
	if err := errs.Err("datos de cliente inválidos"); err != nil {
		return nil, err
	}

	client := &models.Client{}
	input.apply(client)
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, mapWriteError(err, "insert client")
	}
	return FromModel(client), nil
}

func (s *service) Update(ctx context.Context, nit string, input ClientInput) (*ClientDTO, error) {
	client, err := s.load(ctx, s.repo, nit)
	if err != nil {
		return nil, err
	}
	input.NIT = client.NIT
	return s.replace(ctx, client, input)
}

func (s *service) Patch(ctx context.Context, nit string, patch ClientPatch) (*ClientDTO, error) {
	client, err := s.load(ctx, s.repo, nit)
	if err != nil {
		return nil, err
	}
	return s.replace(ctx, client, patch.merge(client))
}

func (s *service) replace(ctx context.Context, client *models.Client, input ClientInput) (*ClientDTO, error) {
	input = input.normalized()
	errs, err := s.validate(ctx, s.repo, input, client)
	if err != nil {
		return nil, err
	}
	if err := errs.Err("datos de cliente inválidos"); err != nil {
		return nil, err
	}
	input.apply(client)
	if err := s.repo.Save(ctx, client); err != nil {
		return nil, mapWriteError(err, "update client")
	}
	return FromModel(client), nil
}

func (s *service) Delete(ctx context.Context, nit string) error {
	deleted, err := s.repo.Delete(ctx, nit)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "No se pudo eliminar el cliente porque tiene ventas asociadas.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete client")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cliente no encontrado")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, nit string) (*models.Client, error) {
	client, err := repo.FindByNIT(ctx, nit)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cliente no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	return client, nil
}

// validate checks the tag rules plus NIT and email uniqueness. existing is
// the stored row when input updates a client.
func (s *service) validate(ctx context.Context, repo *Repository, input ClientInput, existing *models.Client) (validation.Errors, error) {
	errs := validation.Struct(input)
	if existing == nil && errs["nit"] == nil {
		if _, err := repo.FindByNIT(ctx, input.NIT); err == nil {
			errs.Add("nit", "ya existe un cliente con este NIT")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client nit")
		}
	}
	if input.Email != nil && errs["correo_electronico"] == nil {
		exclude := ""
		if existing != nil {
			exclude = existing.NIT
		}
		taken, err := repo.EmailTaken(ctx, *input.Email, exclude)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client email")
		}
		if taken {
			errs.Add("correo_electronico", "ya existe un cliente con este correo electrónico")
		}
	}
	return errs, nil
}

func mapWriteError(err error, step string) error {
	switch {
	case db.IsUniqueViolation(err, "correo_electronico"):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de cliente inválidos").
			WithDetails(map[string]any{"correo_electronico": []string{"ya existe un cliente con este correo electrónico"}})
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "datos de cliente inválidos").
			WithDetails(map[string]any{"nit": []string{"ya existe un cliente con este NIT"}})
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "referencia inválida")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
