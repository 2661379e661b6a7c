package dispatch

// Tool names accepted by Call.
const (
	ToolExplainProgram           = "explain_program"
	ToolGetEligibilityCriteria   = "get_eligibility_criteria"
	ToolEligibilityCheck         = "eligibility_check"
	ToolGenerateChecklist        = "generate_checklist"
	ToolTimeline                 = "timeline"
	ToolQuestionsForProfessional = "questions_for_professional"
)

// tool describes one callable tool. Content tools carry an instruction that
// frames the retrieved text; the eligibility tool evaluates user facts
// instead.
type tool struct {
	name               string
	description        string
	programDescription string
	instruction        string
	evaluates          bool
}

var toolTable = []tool{
	{
		name:               ToolExplainProgram,
		description:        "Get plain-language explanation of a government program",
		programDescription: "ID of the program to explain",
		instruction: "Provide a clear, plain-language explanation of this government program. " +
			"Include: 1) What the program is, 2) Who it's for, 3) Key benefits, 4) Important deadlines or requirements. " +
			"Keep it concise and easy to understand.",
	},
	{
		name:               ToolGetEligibilityCriteria,
		description:        "Get eligibility criteria for a program",
		programDescription: "ID of the program",
		instruction: "Extract and list all eligibility criteria for this program. Format as a clear, numbered list. " +
			"Include income thresholds, residency requirements, age requirements, and any other qualifying conditions mentioned in the text.",
	},
	{
		name:               ToolEligibilityCheck,
		description:        "Check eligibility for a program based on user context",
		programDescription: "ID of the program to check",
		evaluates:          true,
	},
	{
		name:               ToolGenerateChecklist,
		description:        "Generate a step-by-step checklist for applying to a program",
		programDescription: "ID of the program",
		instruction: "Create a step-by-step checklist for applying to this program. Format as a numbered list with clear action items. " +
			"Include: 1) Documents to gather, 2) Forms to complete, 3) Where to submit, 4) What to expect next.",
	},
	{
		name:               ToolTimeline,
		description:        "Get key dates and deadlines for a program",
		programDescription: "ID of the program",
		instruction: "Extract all key dates, deadlines, and timeline information for this program. " +
			"Include: application deadlines, payment dates, renewal dates, and any consequences of missing deadlines. " +
			"Format as a clear timeline.",
	},
	{
		name:               ToolQuestionsForProfessional,
		description:        "Get questions to ask a professional about a program",
		programDescription: "ID of the program",
		instruction: "Based on this program information, generate 5-7 specific questions someone should ask a tax professional, " +
			"accountant, or government service representative. Focus on clarifying complex aspects, understanding personal eligibility, " +
			"and optimizing their situation within legal bounds.",
	},
}

// ToolSpec is the public declaration of a tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func (t tool) spec(programIDs []string) ToolSpec {
	properties := map[string]any{
		"program_id": map[string]any{
			"type":        "string",
			"enum":        programIDs,
			"description": t.programDescription,
		},
	}
	required := []string{"program_id"}
	if t.evaluates {
		properties["user_context"] = userContextSchema()
		required = append(required, "user_context")
	}
	return ToolSpec{
		Name:        t.name,
		Description: t.description,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

func userContextSchema() map[string]any {
	number := func(desc string) map[string]any {
		return map[string]any{"type": "number", "minimum": 0, "description": desc}
	}
	return map[string]any{
		"type":        "object",
		"description": "Self-reported facts. Omit anything unknown.",
		"properties": map[string]any{
			"income":          number("Annual household income"),
			"familySize":      number("Number of people in the family"),
			"hasChildren":     map[string]any{"type": "boolean"},
			"childrenAges":    map[string]any{"type": "array", "items": number("Age in years")},
			"province":        map[string]any{"type": "string", "description": "Province or country of residence"},
			"businessType":    map[string]any{"type": "string"},
			"taxableSupplies": number("Annual taxable supplies of the business"),
		},
	}
}
