package clients

import "strings"

func trim(v string) string {
	return strings.TrimSpace(v)
}

// optional trims v and turns blank values into nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
