package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
)

// Service exposes the read-only lookup tables.
type Service interface {
	CreditStatuses(ctx context.Context) ([]CreditStatusDTO, error)
	Packagings(ctx context.Context) ([]PackagingDTO, error)
	VisitOutcomes(ctx context.Context) ([]VisitOutcomeDTO, error)
	TimeAllowances(ctx context.Context) ([]TimeAllowanceDTO, error)
}

type lookupRepository interface {
	ListCreditStatuses(ctx context.Context) ([]models.CreditStatus, error)
	ListPackagings(ctx context.Context) ([]models.Packaging, error)
	ListVisitOutcomes(ctx context.Context) ([]models.VisitOutcome, error)
	ListTimeAllowances(ctx context.Context) ([]models.TimeAllowance, error)
}

type service struct {
	repo lookupRepository
}

func NewService(repo lookupRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreditStatuses(ctx context.Context) ([]CreditStatusDTO, error) {
	rows, err := s.repo.ListCreditStatuses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list credit statuses")
	}
	return creditStatusesFromModels(rows), nil
}

func (s *service) Packagings(ctx context.Context) ([]PackagingDTO, error) {
	rows, err := s.repo.ListPackagings(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packagings")
	}
	return packagingsFromModels(rows), nil
}

func (s *service) VisitOutcomes(ctx context.Context) ([]VisitOutcomeDTO, error) {
	rows, err := s.repo.ListVisitOutcomes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list visit outcomes")
	}
	return visitOutcomesFromModels(rows), nil
}

func (s *service) TimeAllowances(ctx context.Context) ([]TimeAllowanceDTO, error) {
	rows, err := s.repo.ListTimeAllowances(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list time allowances")
	}
	return timeAllowancesFromModels(rows), nil
}
