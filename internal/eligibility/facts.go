package eligibility

// Field names reported in Verdict.MissingInfo. They match the user_context
// keys callers send.
const (
	FieldIncome          = "income"
	FieldHasChildren     = "hasChildren"
	FieldChildrenAges    = "childrenAges"
	FieldProvince        = "province"
	FieldBusinessType    = "businessType"
	FieldTaxableSupplies = "taxableSupplies"
)

type requirement struct {
	field   string
	present func(Facts) bool
}

var (
	needIncome          = requirement{FieldIncome, func(f Facts) bool { return f.Income != nil }}
	needHasChildren     = requirement{FieldHasChildren, func(f Facts) bool { return f.HasChildren != nil }}
	needChildrenAges    = requirement{FieldChildrenAges, func(f Facts) bool { return f.ChildrenAges != nil }}
	needProvince        = requirement{FieldProvince, func(f Facts) bool { return f.Province != nil }}
	needBusinessType    = requirement{FieldBusinessType, func(f Facts) bool { return f.BusinessType != nil }}
	needTaxableSupplies = requirement{FieldTaxableSupplies, func(f Facts) bool { return f.TaxableSupplies != nil }}
)

// missingFacts returns every absent field, in the order given.
func missingFacts(f Facts, reqs ...requirement) []string {
	var missing []string
	for _, r := range reqs {
		if !r.present(f) {
			missing = append(missing, r.field)
		}
	}
	return missing
}

func hasChildUnder(ages []float64, limit float64) bool {
	for _, age := range ages {
		if age < limit {
			return true
		}
	}
	return false
}
