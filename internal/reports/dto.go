package reports

import (
	"time"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
)

type ReportFileDTO struct {
	ID          int64     `json:"id"`
	UUID        string    `json:"uuid"`
	FileName    string    `json:"nombre_archivo"`
	FilePath    string    `json:"file_path"`
	GeneratedAt time.Time `json:"fecha_generacion"`
}

func fromModel(m *models.ReportFile) ReportFileDTO {
	return ReportFileDTO{
		ID:          m.ID,
		UUID:        m.UUID,
		FileName:    m.FileName,
		FilePath:    m.FilePath,
		GeneratedAt: m.GeneratedAt,
	}
}
