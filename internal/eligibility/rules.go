package eligibility

// Every rule runs the same three phases, fail-fast:
//  1. Completeness: all required facts present, else unclear with every
//     missing field listed in declared order.
//  2. Categorical: jurisdiction gate, else not_eligible with one reason.
//  3. Threshold: hard-coded conservative cutoffs, first failure wins.
//
// Thresholds are deliberately rough estimates of the real program rules and
// are not derived from the retrieved page. Income ceilings are exclusive: a
// value equal to the ceiling is eligible.

const (
	reasonCanadaResident   = "Must be resident of Canada"
	reasonAlbertaResident  = "Must be resident of Alberta"
	reasonOperatesInCanada = "Business must operate in Canada"
	reasonIncomeTooHigh    = "Income may be too high"
	reasonChildrenUnder6   = "Must have children under 6"
	reasonChildrenUnder18  = "Must have children under 18"
	reasonSuppliesTooLow   = "Taxable supplies too low"
)

const (
	jurisdictionCanada  = "Canada"
	jurisdictionAlberta = "Alberta"
)

// GST/HST credit: income above 55,000 is treated as too high.
const gstCreditIncomeCeiling = 55000

func evaluateGSTCredit(f Facts) Verdict {
	if missing := missingFacts(f, needIncome, needProvince); len(missing) > 0 {
		return unclear(missing)
	}

	if *f.Province != jurisdictionCanada {
		return notEligible(reasonCanadaResident)
	}

	if *f.Income > gstCreditIncomeCeiling {
		return notEligible(reasonIncomeTooHigh)
	}
	return eligible()
}

// Canada Child Benefit: at least one child under 6, income at most 70,000.
const (
	ccbChildAgeLimit = 6
	ccbIncomeCeiling = 70000
)

func evaluateCanadaChildBenefit(f Facts) Verdict {
	if missing := missingFacts(f, needHasChildren, needChildrenAges, needIncome, needProvince); len(missing) > 0 {
		return unclear(missing)
	}

	if *f.Province != jurisdictionCanada {
		return notEligible(reasonCanadaResident)
	}

	if !*f.HasChildren || !hasChildUnder(f.ChildrenAges, ccbChildAgeLimit) {
		return notEligible(reasonChildrenUnder6)
	}
	if *f.Income > ccbIncomeCeiling {
		return notEligible(reasonIncomeTooHigh)
	}
	return eligible()
}

// Alberta Family Employment Tax Credit: Alberta residents with a child under
// 18 and income at most 60,000.
const (
	afetcChildAgeLimit = 18
	afetcIncomeCeiling = 60000
)

func evaluateAlbertaFamilyEmploymentTaxCredit(f Facts) Verdict {
	if missing := missingFacts(f, needHasChildren, needChildrenAges, needIncome, needProvince); len(missing) > 0 {
		return unclear(missing)
	}

	if *f.Province != jurisdictionAlberta {
		return notEligible(reasonAlbertaResident)
	}

	if !*f.HasChildren || !hasChildUnder(f.ChildrenAges, afetcChildAgeLimit) {
		return notEligible(reasonChildrenUnder18)
	}
	if *f.Income > afetcIncomeCeiling {
		return notEligible(reasonIncomeTooHigh)
	}
	return eligible()
}

// GST/HST registration: required once taxable supplies exceed the 30,000
// small-supplier limit. At or below the limit registration is not required.
const smallSupplierLimit = 30000

func evaluateGSTRegistration(f Facts) Verdict {
	if missing := missingFacts(f, needTaxableSupplies, needProvince); len(missing) > 0 {
		return unclear(missing)
	}

	if *f.Province != jurisdictionCanada {
		return notEligible(reasonOperatesInCanada)
	}

	if *f.TaxableSupplies <= smallSupplierLimit {
		return notEligible(reasonSuppliesTooLow)
	}
	return eligible()
}

// Payroll deductions: any business type operating in Canada. There is no
// threshold phase.
func evaluatePayrollDeductions(f Facts) Verdict {
	if missing := missingFacts(f, needBusinessType, needProvince); len(missing) > 0 {
		return unclear(missing)
	}

	if *f.Province != jurisdictionCanada {
		return notEligible(reasonOperatesInCanada)
	}
	return eligible()
}
