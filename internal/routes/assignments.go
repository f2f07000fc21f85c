package routes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/internal/catalog"
	"github.com/angelmondragon/rutaventas-backend/internal/clients"
	"github.com/angelmondragon/rutaventas-backend/pkg/db/models"
	"github.com/angelmondragon/rutaventas-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rutaventas-backend/pkg/errors"
	"github.com/angelmondragon/rutaventas-backend/pkg/validation"
	"gorm.io/gorm"
)

const clientsField = "clientes"

// checkAssignments rejects structurally invalid lists without touching storage.
func checkAssignments(inputs []AssignmentInput) validation.Errors {
	errs := validation.Errors{}
	if len(inputs) == 0 {
		errs.Add(clientsField, "Debe proporcionar al menos un cliente.")
		return errs
	}

	seenClients := make(map[string]struct{}, len(inputs))
	seenOrders := make(map[int]struct{}, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		in.ClientNIT = strings.TrimSpace(in.ClientNIT)
		for field, messages := range validation.Struct(*in) {
			for _, msg := range messages {
				errs.Addf(clientsField, "Cliente %d, %s: %s", i+1, field, msg)
			}
		}
		if in.StartedAt != nil && in.EndedAt != nil && in.EndedAt.Before(*in.StartedAt) {
			errs.Addf(clientsField, "Cliente %d, hora_fin: debe ser posterior a hora_inicio", i+1)
		}

		if _, dup := seenClients[in.ClientNIT]; dup && in.ClientNIT != "" {
			errs.Addf(clientsField, "El cliente '%s' está repetido.", in.ClientNIT)
		}
		seenClients[in.ClientNIT] = struct{}{}
		if _, dup := seenOrders[in.VisitOrder]; dup && in.VisitOrder > 0 {
			errs.Addf(clientsField, "El orden de visita '%d' está repetido.", in.VisitOrder)
		}
		seenOrders[in.VisitOrder] = struct{}{}
	}
	return errs
}

// resolveAssignments checks every client, time allowance and outcome
// reference in bulk and returns the rows to insert sorted by visit order.
// Every missing reference is reported, each group sorted.
func resolveAssignments(ctx context.Context, tx *gorm.DB, clientRepo *clients.Repository, catalogRepo *catalog.Repository, inputs []AssignmentInput) ([]models.RouteClient, error) {
	nits := make([]string, 0, len(inputs))
	allowanceIDs := make([]int16, 0, len(inputs))
	outcomes := make([]string, 0, len(inputs))
	for _, in := range inputs {
		nits = append(nits, in.ClientNIT)
		allowanceIDs = append(allowanceIDs, in.TimeAllowanceID)
		outcomes = append(outcomes, outcomeOf(in))
	}

	foundClients, err := clientRepo.WithTx(tx).FindByNITs(ctx, nits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load clients")
	}
	foundAllowances, err := catalogRepo.WithTx(tx).FindTimeAllowances(ctx, allowanceIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load time allowances")
	}
	foundOutcomes, err := catalogRepo.WithTx(tx).ExistingVisitOutcomes(ctx, outcomes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load visit outcomes")
	}

	var missingClients, missingOutcomes []string
	var missingAllowances []int
	for _, nit := range uniqueStrings(nits) {
		if _, ok := foundClients[nit]; !ok {
			missingClients = append(missingClients, nit)
		}
	}
	for _, id := range uniqueInt16s(allowanceIDs) {
		if _, ok := foundAllowances[id]; !ok {
			missingAllowances = append(missingAllowances, int(id))
		}
	}
	for _, code := range uniqueStrings(outcomes) {
		if _, ok := foundOutcomes[code]; !ok {
			missingOutcomes = append(missingOutcomes, code)
		}
	}
	sort.Strings(missingClients)
	sort.Ints(missingAllowances)
	sort.Strings(missingOutcomes)

	errs := validation.Errors{}
	for _, nit := range missingClients {
		errs.Add(clientsField, fmt.Sprintf("Cliente '%s' no existe", nit))
	}
	for _, id := range missingAllowances {
		errs.Add(clientsField, fmt.Sprintf("Tiempo cliente '%d' no existe", id))
	}
	for _, code := range missingOutcomes {
		errs.Add(clientsField, fmt.Sprintf("Resultado visita '%s' no existe", code))
	}
	if err := errs.Err("datos de ruta inválidos"); err != nil {
		return nil, err
	}

	rows := make([]models.RouteClient, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, models.RouteClient{
			ClientNIT:       in.ClientNIT,
			VisitOrder:      in.VisitOrder,
			TimeAllowanceID: in.TimeAllowanceID,
			StartedAt:       in.StartedAt,
			EndedAt:         in.EndedAt,
			Outcome:         outcomeOf(in),
			Notes:           in.Notes,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].VisitOrder < rows[j].VisitOrder })
	return rows, nil
}

// outcomeOf returns the requested outcome, PENDIENTE when blank.
func outcomeOf(in AssignmentInput) string {
	if in.Outcome == nil {
		return string(enums.VisitResultPending)
	}
	v := strings.ToUpper(strings.TrimSpace(*in.Outcome))
	if v == "" {
		return string(enums.VisitResultPending)
	}
	return v
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func uniqueInt16s(values []int16) []int16 {
	seen := make(map[int16]struct{}, len(values))
	out := make([]int16, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
