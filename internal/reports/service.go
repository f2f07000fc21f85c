package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/logger"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Service renders PDF reports and serves them back by UUID.
type Service interface {
	Generate(ctx context.Context, req Request) (*ReportFileDTO, error)
	Open(ctx context.Context, id string) (*Download, error)
}

// Download is an opened report file; the caller closes File.
type Download struct {
	FileName string
	File     *os.File
	ModTime  time.Time
}

type ServiceParams struct {
	Repo    *Repository
	Dir     string
	Metrics *metrics.OperationMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    *Repository
	dir     string
	metrics *metrics.OperationMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	dir := params.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("reports dir %q: %w", dir, err)
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repo,
		dir:     dir,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) Generate(ctx context.Context, req Request) (dto *ReportFileDTO, err error) {
	start := time.Now()
	kind, known := NormalizeType(req.Type)
	metricKind := kind
	if !known {
		metricKind = "desconocido"
	}
	defer func() { s.metrics.Observe(metrics.OperationReport, metricKind, start, err) }()

	f := filters(req.Filters)
	var table Table
	if build, ok := builders[kind]; ok {
		table, err = build(ctx, s.repo, req, f)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query report data")
		}
	} else {
		table = unknownTable(req.Type)
	}

	generated := s.now()
	doc := newDocument(titleCase(kind), generated, f.describe())
	doc.table(table)

	id := uuid.NewString()
	name := fmt.Sprintf("report_%s_%s.pdf", fileLabel(kind), id)
	path := filepath.Join(s.dir, name)
	if err := writeFile(path, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write report")
	}

	row := &models.ReportFile{UUID: id, FileName: name, FilePath: path, GeneratedAt: generated}
	if err := s.repo.CreateFile(ctx, row); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			err = multierr.Append(err, rmErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record report file")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"report_uuid": id, "report_type": kind, "pages": doc.pages()})
	s.logg.Info(ctx, "report generated")
	out := fromModel(row)
	return &out, nil
}

func writeFile(path string, doc *document) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return doc.write(f)
}

func (s *service) Open(ctx context.Context, id string) (*Download, error) {
	row, err := s.repo.FindFile(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Reporte no existe")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report file")
	}
	f, err := os.Open(row.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Archivo no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open report file")
	}
	info, err := f.Stat()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, multierr.Append(err, f.Close()), "stat report file")
	}
	return &Download{FileName: row.FileName, File: f, ModTime: info.ModTime()}, nil
}
