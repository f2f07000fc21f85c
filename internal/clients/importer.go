package clients

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/metrics"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"gorm.io/gorm"
)

// ImportHeaders are the columns a client CSV must carry.
var ImportHeaders = []string{"nit", "nombre", "direccion", "correo_electronico", "estatus_credito"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type ImportResult struct {
	Created int `json:"creados"`
	Updated int `json:"actualizados"`
}

// RowError lists the failures of one CSV row; rows are numbered from 2.
type RowError struct {
	Row    int               `json:"fila"`
	Errors validation.Errors `json:"errores"`
}

// ImportCSV creates or updates one client per row. Any invalid row rolls back
// the whole file and every row error is reported.
func (s *service) ImportCSV(ctx context.Context, file []byte) (result *ImportResult, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(metrics.OperationImport, "clientes", start, err) }()

	if !utf8.Valid(file) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "El archivo CSV debe estar codificado en UTF-8.")
	}
	file = bytes.TrimPrefix(file, utf8BOM)
	if len(bytes.TrimSpace(file)) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "El archivo CSV está vacío.")
	}

	reader := csv.NewReader(bytes.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil || len(header) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "El archivo CSV no contiene encabezados.")
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	if missing := missingHeaders(header); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Encabezados faltantes en el CSV.").
			WithDetails(map[string]any{"faltantes": missing, "esperados": ImportHeaders})
	}

	result = &ImportResult{}
	var rowErrors []RowError
	now := s.now()

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		line := 1
		for {
			record, readErr := reader.Read()
			if errors.Is(readErr, io.EOF) {
				break
			}
			line++
			if readErr != nil {
				rowErrors = append(rowErrors, RowError{Row: line, Errors: validation.Errors{"non_field_errors": {readErr.Error()}}})
				continue
			}
			row := rowValues(header, record)
			if blankRow(row) {
				continue
			}

			input := ClientInput{
				NIT:          row["nit"],
				Name:         row["nombre"],
				Address:      optional(strPtr(row["direccion"])),
				Email:        optional(strPtr(row["correo_electronico"])),
				CreditStatus: truncate(row["estatus_credito"], 2),
			}.normalized()

			existing, err := txRepo.FindByNIT(ctx, input.NIT)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				existing = nil
			}

			errs, err := s.validate(ctx, txRepo, input, existing)
			if err != nil {
				return err
			}
			if !errs.Empty() {
				rowErrors = append(rowErrors, RowError{Row: line, Errors: errs})
				continue
			}

			if existing != nil {
				input.apply(existing)
				existing.UpdatedAt = now
				writeErrs, err := saveRow(tx, func() error { return txRepo.Save(ctx, existing) })
				if err != nil {
					return err
				}
				if writeErrs != nil {
					rowErrors = append(rowErrors, RowError{Row: line, Errors: writeErrs})
					continue
				}
				result.Updated++
				continue
			}

			client := &models.Client{CreatedAt: now, UpdatedAt: now}
			input.apply(client)
			writeErrs, err := saveRow(tx, func() error { return txRepo.Create(ctx, client) })
			if err != nil {
				return err
			}
			if writeErrs != nil {
				rowErrors = append(rowErrors, RowError{Row: line, Errors: writeErrs})
				continue
			}
			result.Created++
		}

		if len(rowErrors) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Se encontraron errores de validación.").
				WithDetails(map[string]any{"errores": rowErrors})
		}
		return nil
	})
	if txErr != nil {
		if pkgerrors.As(txErr) != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "import clients")
	}
	return result, nil
}

func missingHeaders(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, want := range ImportHeaders {
		if _, ok := present[want]; !ok {
			missing = append(missing, want)
		}
	}
	return missing
}

func rowValues(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(record) {
			row[name] = strings.TrimSpace(record[i])
		} else {
			row[name] = ""
		}
	}
	return row
}

func blankRow(row map[string]string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

const rowSavepoint = "import_row"

// saveRow runs write under a savepoint. A rejected write is rolled back to it
// so the transaction stays usable for the rows that follow; postgres refuses
// every statement in a transaction after a failed one.
func saveRow(tx *gorm.DB, write func() error) (validation.Errors, error) {
	if err := tx.SavePoint(rowSavepoint).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "import savepoint")
	}
	writeErr := write()
	if writeErr == nil {
		return nil, nil
	}
	if err := tx.RollbackTo(rowSavepoint).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rollback import row")
	}
	return writeErrors(writeErr), nil
}

func writeErrors(err error) validation.Errors {
	if typed := pkgerrors.As(mapWriteError(err, "save client")); typed != nil {
		if details, ok := typed.Details().(map[string]any); ok {
			errs := validation.Errors{}
			for field, v := range details {
				if messages, ok := v.([]string); ok {
					errs[field] = messages
				}
			}
			if !errs.Empty() {
				return errs
			}
		}
	}
	return validation.Errors{"non_field_errors": {err.Error()}}
}

func truncate(v string, n int) string {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) <= n {
		return v
	}
	return string([]rune(v)[:n])
}

func strPtr(v string) *string {
	return &v
}
