// Package probe exercises every tool against every program through the
// dispatcher and reports which combinations produce attributed answers.
package probe

import (
	"encoding/json"
	"fmt"

	"plaingov/internal/dispatch"
)

// validUserContexts are complete fact sets that reach a verdict for each
// program without tripping the completeness phase.
var validUserContexts = map[string]map[string]any{
	"gst_credit": {
		"income":   45000,
		"province": "Canada",
	},
	"ccb": {
		"income":       65000,
		"hasChildren":  true,
		"childrenAges": []float64{2, 4},
		"province":     "Canada",
	},
	"alberta_family_employment_tax_credit": {
		"income":       55000,
		"hasChildren":  true,
		"childrenAges": []float64{10},
		"province":     "Alberta",
	},
	"gst_registration": {
		"taxableSupplies": 35000,
		"province":        "Canada",
	},
	"payroll_deductions": {
		"businessType": "corporation",
		"province":     "Canada",
	},
}

// Case is one tool call in the matrix.
type Case struct {
	ID        string          `json:"id"`
	Tool      string          `json:"tool"`
	ProgramID string          `json:"program_id"`
	Args      json.RawMessage `json:"arguments"`
}

// Matrix builds one case per tool and program, tools outermost. Eligibility
// cases carry a known-complete user context; programs without one get an
// empty context and are expected to come back unclear.
func Matrix(tools []string, programIDs []string) ([]Case, error) {
	cases := make([]Case, 0, len(tools)*len(programIDs))
	for _, tool := range tools {
		for _, id := range programIDs {
			args := map[string]any{"program_id": id}
			if tool == dispatch.ToolEligibilityCheck {
				userContext, ok := validUserContexts[id]
				if !ok {
					userContext = map[string]any{}
				}
				args["user_context"] = userContext
			}
			raw, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("marshal arguments for %s/%s: %w", tool, id, err)
			}
			cases = append(cases, Case{
				ID:        fmt.Sprintf("TC-%03d", len(cases)+1),
				Tool:      tool,
				ProgramID: id,
				Args:      raw,
			})
		}
	}
	return cases, nil
}
