package domain

// Variant selects the rule set a session is played under.
type Variant string

const (
	VariantDeduction Variant = "deduction"
	VariantShedding  Variant = "shedding"
)

// Valid reports whether v names a supported variant.
func (v Variant) Valid() bool {
	return v == VariantDeduction || v == VariantShedding
}
