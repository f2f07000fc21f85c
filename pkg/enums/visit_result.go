package enums

import "fmt"

// VisitResult is the outcome stored on a seller visit log entry.
type VisitResult string

const (
	VisitResultSale    VisitResult = "VENTA"
	VisitResultNoSale  VisitResult = "NO_CONCRETADA"
	VisitResultPending VisitResult = "PENDIENTE"
)

var validVisitResults = []VisitResult{
	VisitResultSale,
	VisitResultNoSale,
	VisitResultPending,
}

func (v VisitResult) String() string {
	return string(v)
}

func (v VisitResult) IsValid() bool {
	for _, candidate := range validVisitResults {
		if candidate == v {
			return true
		}
	}
	return false
}

func ParseVisitResult(value string) (VisitResult, error) {
	for _, candidate := range validVisitResults {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visit result %q", value)
}
