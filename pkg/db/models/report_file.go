package models

import "time"

// ReportFile records a generated report reachable by its UUID handle.
type ReportFile struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UUID        string    `gorm:"column:uuid;size:64;not null;uniqueIndex"`
	FileName    string    `gorm:"column:nombre_archivo;size:255;not null"`
	FilePath    string    `gorm:"column:file_path;size:1024;not null"`
	GeneratedAt time.Time `gorm:"column:fecha_generacion;autoCreateTime"`
}

func (ReportFile) TableName() string { return "report_files" }
