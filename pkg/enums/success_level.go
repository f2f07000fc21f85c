package enums

// SuccessLevel is the label derived from a seller's success percentage.
type SuccessLevel string

const (
	SuccessLevelHigh   SuccessLevel = "alto"
	SuccessLevelMedium SuccessLevel = "medio"
	SuccessLevelLow    SuccessLevel = "bajo"
)

// SuccessLevelFor maps a 0..100 percentage to its label; nil stays nil.
func SuccessLevelFor(percent *int) *SuccessLevel {
	if percent == nil {
		return nil
	}
	level := SuccessLevelLow
	switch {
	case *percent >= 70:
		level = SuccessLevelHigh
	case *percent >= 40:
		level = SuccessLevelMedium
	}
	return &level
}
