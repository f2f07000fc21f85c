package catalog

import "github.com/angelmondragon/rutaventas-backend/pkg/db/models"

type CreditStatusDTO struct {
	Code        string  `json:"estatus_credito"`
	Description *string `json:"descripcion"`
}

type PackagingDTO struct {
	Code        string  `json:"presentacion"`
	Description *string `json:"descripcion"`
}

type VisitOutcomeDTO struct {
	Code        string  `json:"resultado_visita"`
	Description *string `json:"descripcion"`
}

type TimeAllowanceDTO struct {
	ID          int16  `json:"id_tiempo_cliente"`
	Minutes     int    `json:"minutos"`
	Description string `json:"descripcion"`
}

func creditStatusesFromModels(rows []models.CreditStatus) []CreditStatusDTO {
	out := make([]CreditStatusDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, CreditStatusDTO{Code: row.Code, Description: row.Description})
	}
	return out
}

func packagingsFromModels(rows []models.Packaging) []PackagingDTO {
	out := make([]PackagingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, PackagingDTO{Code: row.Code, Description: row.Description})
	}
	return out
}

func visitOutcomesFromModels(rows []models.VisitOutcome) []VisitOutcomeDTO {
	out := make([]VisitOutcomeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, VisitOutcomeDTO{Code: row.Code, Description: row.Description})
	}
	return out
}

func timeAllowancesFromModels(rows []models.TimeAllowance) []TimeAllowanceDTO {
	out := make([]TimeAllowanceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, TimeAllowanceDTO{ID: row.ID, Minutes: row.Minutes, Description: row.Description})
	}
	return out
}
