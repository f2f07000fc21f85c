package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/pkg/db"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/pagination"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	mediaPrefix = "evidencias"
	sniffBytes  = 3072

	msgMediaRequired  = "Debe proporcionar una imagen o un URL de evidencia."
	msgUploadRequired = "Cargue un archivo en el campo 'archivo' o 'imagen'."
)

// BlobStore keeps uploaded images.
type BlobStore interface {
	Save(ctx context.Context, prefix, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Service manages photo evidence attached to clients, routes and sales.
type Service interface {
	List(ctx context.Context, input ListInput) (pagination.Page[EvidenceDTO], error)
	Get(ctx context.Context, id int64) (*EvidenceDTO, error)
	Create(ctx context.Context, input EvidenceInput) (*EvidenceDTO, error)
	// Upload is Create with the image mandatory.
	Upload(ctx context.Context, input EvidenceInput) (*EvidenceDTO, error)
	Update(ctx context.Context, id int64, input EvidenceInput) (*EvidenceDTO, error)
	Delete(ctx context.Context, id int64) error
}

// ListInput holds raw query values. A route or sale id that is not an integer
// matches nothing.
type ListInput struct {
	Client string
	Route  string
	Sale   string
	Params pagination.Params
}

type urlCheck struct {
	URL         *string `json:"url" validate:"omitempty,max=1024,url"`
	Description *string `json:"descripcion" validate:"omitempty,max=300"`
}

type service struct {
	repo  *Repository
	store BlobStore
	logg  *logger.Logger
}

func NewService(repo *Repository, store BlobStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("evidence repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, store: store, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Page[EvidenceDTO], error) {
	filters := ListFilters{}
	if v := strings.TrimSpace(input.Client); v != "" {
		filters.ClientNIT = &v
	}
	for _, f := range []struct {
		raw string
		dst **int64
	}{{input.Route, &filters.RouteID}, {input.Sale, &filters.SaleID}} {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return pagination.NewPage[EvidenceDTO](input.Params, 0, nil), nil
		}
		*f.dst = &id
	}

	rows, count, err := s.repo.List(ctx, filters, input.Params)
	if err != nil {
		return pagination.Page[EvidenceDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list evidence")
	}
	out := make([]EvidenceDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i], s.store.URL))
	}
	return pagination.NewPage(input.Params, count, out), nil
}

func (s *service) Get(ctx context.Context, id int64) (*EvidenceDTO, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(row, s.store.URL)
	return &dto, nil
}

func (s *service) Upload(ctx context.Context, input EvidenceInput) (*EvidenceDTO, error) {
	if input.Image == nil {
		return nil, validation.Errors{"archivo": {msgUploadRequired}}.Err(msgUploadRequired)
	}
	return s.Create(ctx, input)
}

func (s *service) Create(ctx context.Context, input EvidenceInput) (*EvidenceDTO, error) {
	row := &models.PhotoEvidence{}
	if err := s.apply(ctx, row, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.discard(ctx, row.Image, err)
		return nil, mapWriteError(err, "insert evidence")
	}
	return s.Get(ctx, row.ID)
}

// Update changes only the supplied fields; existing media is kept when
// neither an image nor a URL is given.
func (s *service) Update(ctx context.Context, id int64, input EvidenceInput) (*EvidenceDTO, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := row.Image
	if err := s.apply(ctx, row, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, row); err != nil {
		if row.Image != previous {
			s.discard(ctx, row.Image, err)
		}
		return nil, mapWriteError(err, "update evidence")
	}
	if previous != nil && row.Image != previous {
		if err := s.store.Delete(ctx, *previous); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "object_key", *previous), "stale evidence image not removed: "+err.Error())
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete evidence")
	}
	if row.Image != nil {
		if err := s.store.Delete(ctx, *row.Image); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "object_key", *row.Image), "evidence image not removed: "+err.Error())
		}
	}
	return nil
}

// apply validates input against row and storage, stores a new image and
// copies the supplied fields onto row.
func (s *service) apply(ctx context.Context, row *models.PhotoEvidence, input EvidenceInput) error {
	errs := validation.Struct(urlCheck{URL: input.URL, Description: input.Description})

	url := row.URL
	if input.URL != nil {
		url = input.URL
	}
	if input.Image == nil && url == nil && row.Image == nil {
		errs.Add("non_field_errors", msgMediaRequired)
	}

	if err := checkRef(ctx, errs, "cliente", input.Client, s.repo.ClientExists); err != nil {
		return err
	}
	if err := checkRef(ctx, errs, "ruta", input.Route, s.repo.RouteExists); err != nil {
		return err
	}
	if err := checkRef(ctx, errs, "venta", input.Sale, s.repo.SaleExists); err != nil {
		return err
	}

	var body io.Reader
	var ext string
	if input.Image != nil {
		var err error
		body, ext, err = sniffImage(input.Image.Body)
		if err != nil {
			errs.Add("imagen", err.Error())
		}
	}
	if err := errs.Err("datos de evidencia inválidos"); err != nil {
		return err
	}

	if body != nil {
		name := input.Image.Filename
		if filepath.Ext(name) == "" {
			name += ext
		}
		key, err := s.store.Save(ctx, mediaPrefix, name, body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store evidence image")
		}
		row.Image = &key
	}
	row.URL = url

	if input.Description != nil {
		row.Description = input.Description
	}
	if input.Client.Set {
		row.ClientNIT = input.Client.Value
		row.Client = nil
	}
	if input.Route.Set {
		row.RouteID = input.Route.Value
		row.Route = nil
	}
	if input.Sale.Set {
		row.SaleID = input.Sale.Value
		row.Sale = nil
	}
	return nil
}

func checkRef[T any](ctx context.Context, errs validation.Errors, field string, ref Ref[T], exists func(context.Context, T) (bool, error)) error {
	if !ref.Set || ref.Value == nil {
		return nil
	}
	ok, err := exists(ctx, *ref.Value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check "+field)
	}
	if !ok {
		errs.Addf(field, "'%v' no existe", *ref.Value)
	}
	return nil
}

func (s *service) load(ctx context.Context, id int64) (*models.PhotoEvidence, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "evidencia no encontrada")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load evidence")
	}
	return row, nil
}

// discard removes an image stored for a write that then failed.
func (s *service) discard(ctx context.Context, key *string, cause error) {
	if key == nil {
		return
	}
	if err := s.store.Delete(ctx, *key); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "object_key", *key), "orphan evidence image", multierr.Append(cause, err))
	}
}

// sniffImage checks the leading bytes are an image and returns a reader over
// the whole body plus the detected extension.
func sniffImage(r io.Reader) (io.Reader, string, error) {
	if r == nil {
		return nil, "", errors.New("el archivo está vacío")
	}
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("no se pudo leer el archivo: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, "", errors.New("el archivo está vacío")
	}
	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, "", fmt.Errorf("el archivo debe ser una imagen, se recibió %s", mt.String())
	}
	return io.MultiReader(bytes.NewReader(head), r), mt.Extension(), nil
}

func mapWriteError(err error, step string) error {
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "referencia inválida en la evidencia")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}
