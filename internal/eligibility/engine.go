// Package eligibility classifies a user's eligibility for a program from
// partial, self-reported facts.
//
// This is pure domain logic: no I/O, no clock, no randomness. The verdict is
// computed from the facts alone and never from retrieved page content; the
// retrieved page is shown to the user next to the verdict but does not adjust
// it.
package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRuleMissing means a registered program has no rule. It is a
// configuration defect, not a user-facing condition.
var ErrRuleMissing = errors.New("eligibility rule missing")

// Rule is the closed set of eligibility rules, one per program.
type Rule int

const (
	RuleGSTCredit Rule = iota + 1
	RuleCanadaChildBenefit
	RuleAlbertaFamilyEmploymentTaxCredit
	RuleGSTRegistration
	RulePayrollDeductions
)

var programRules = map[string]Rule{
	"gst_credit":                           RuleGSTCredit,
	"ccb":                                  RuleCanadaChildBenefit,
	"alberta_family_employment_tax_credit": RuleAlbertaFamilyEmploymentTaxCredit,
	"gst_registration":                     RuleGSTRegistration,
	"payroll_deductions":                   RulePayrollDeductions,
}

func (r Rule) String() string {
	switch r {
	case RuleGSTCredit:
		return "gst_credit"
	case RuleCanadaChildBenefit:
		return "ccb"
	case RuleAlbertaFamilyEmploymentTaxCredit:
		return "alberta_family_employment_tax_credit"
	case RuleGSTRegistration:
		return "gst_registration"
	case RulePayrollDeductions:
		return "payroll_deductions"
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// RuleFor resolves the rule for a program id.
func RuleFor(programID string) (Rule, error) {
	rule, ok := programRules[programID]
	if !ok {
		return 0, fmt.Errorf("%w for program %q", ErrRuleMissing, programID)
	}
	return rule, nil
}

// Apply evaluates rule against facts. Every Rule constant has a case; an
// unknown value is a programming error and panics rather than defaulting to a
// verdict.
func Apply(rule Rule, f Facts) Verdict {
	switch rule {
	case RuleGSTCredit:
		return evaluateGSTCredit(f)
	case RuleCanadaChildBenefit:
		return evaluateCanadaChildBenefit(f)
	case RuleAlbertaFamilyEmploymentTaxCredit:
		return evaluateAlbertaFamilyEmploymentTaxCredit(f)
	case RuleGSTRegistration:
		return evaluateGSTRegistration(f)
	case RulePayrollDeductions:
		return evaluatePayrollDeductions(f)
	}
	panic(fmt.Sprintf("eligibility: no evaluation for %s", rule))
}

// Engine evaluates facts against the rule for a program.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate returns the verdict for programID. The only error is
// ErrRuleMissing.
func (e *Engine) Evaluate(programID string, f Facts) (Verdict, error) {
	rule, err := RuleFor(programID)
	if err != nil {
		return Verdict{}, err
	}
	return Apply(rule, f), nil
}

// CheckCoverage fails if any of the given program ids has no rule. Run it at
// startup so a misconfigured catalog never serves traffic.
func (e *Engine) CheckCoverage(programIDs []string) error {
	var missing []string
	for _, id := range programIDs {
		if _, ok := programRules[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w for programs: %s", ErrRuleMissing, strings.Join(missing, ", "))
	}
	return nil
}
