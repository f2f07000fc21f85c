package enums

import "fmt"

// RouteStatus tracks where a route is in its day.
type RouteStatus string

const (
	RouteStatusPending    RouteStatus = "PENDIENTE"
	RouteStatusInProgress RouteStatus = "EN_PROCESO"
	RouteStatusCompleted  RouteStatus = "COMPLETADA"
	RouteStatusCancelled  RouteStatus = "CANCELADA"
)

var validRouteStatuses = []RouteStatus{
	RouteStatusPending,
	RouteStatusInProgress,
	RouteStatusCompleted,
	RouteStatusCancelled,
}

// String implements fmt.Stringer.
func (s RouteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RouteStatus.
func (s RouteStatus) IsValid() bool {
	for _, candidate := range validRouteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRouteStatus converts raw input into a RouteStatus.
func ParseRouteStatus(value string) (RouteStatus, error) {
	for _, candidate := range validRouteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid route status %q", value)
}
