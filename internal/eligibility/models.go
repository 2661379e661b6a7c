package eligibility

// Status is the tri-state outcome of an eligibility check.
type Status string

const (
	StatusEligible    Status = "eligible"
	StatusNotEligible Status = "not_eligible"
	StatusUnclear     Status = "unclear"
)

// Facts are self-reported and partial. A nil field means "unknown", never
// false or zero. ChildrenAges distinguishes nil (unknown) from an empty,
// non-nil slice (known: no ages reported).
type Facts struct {
	Income          *float64
	FamilySize      *float64
	HasChildren     *bool
	ChildrenAges    []float64
	Province        *string
	BusinessType    *string
	TaxableSupplies *float64
}

// Verdict is the engine's answer. Unclear verdicts carry MissingInfo and no
// Reasons; not_eligible verdicts carry exactly one reason; eligible verdicts
// carry neither.
type Verdict struct {
	Status      Status
	Reasons     []string
	MissingInfo []string
}

func unclear(missing []string) Verdict {
	return Verdict{Status: StatusUnclear, Reasons: []string{}, MissingInfo: missing}
}

func notEligible(reason string) Verdict {
	return Verdict{Status: StatusNotEligible, Reasons: []string{reason}, MissingInfo: []string{}}
}

func eligible() Verdict {
	return Verdict{Status: StatusEligible, Reasons: []string{}, MissingInfo: []string{}}
}
