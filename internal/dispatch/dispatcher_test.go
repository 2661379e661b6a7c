package dispatch

//go:generate mockgen -source=dispatcher.go -destination=mocks/mocks.go -package=mocks Registry,Retriever,Evaluator

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"plaingov/internal/dispatch/metrics"
	"plaingov/internal/dispatch/mocks"
	"plaingov/internal/eligibility"
	"plaingov/internal/program"
	"plaingov/internal/retrieval"
	dErrors "plaingov/pkg/domain-errors"
	"plaingov/pkg/platform/sentinel"
	"plaingov/pkg/testutil"
)

// =============================================================================
// Dispatcher Test Suite
// =============================================================================
// Justification for unit tests: the dispatcher owns the call pipeline order
// and the split between protocol errors and text results. Collaborators are
// mocked so each stage can fail in isolation.

type DispatcherSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockRegistry  *mocks.MockRegistry
	mockRetriever *mocks.MockRetriever
	mockEvaluator *mocks.MockEvaluator
	metrics       *metrics.Metrics
	dispatcher    *Dispatcher
}

var ccb = program.Descriptor{
	ID:           "ccb",
	Name:         "Canada Child Benefit",
	URL:          "https://www.canada.ca/en/revenue-agency/services/child-family-benefits/canada-child-benefit-overview.html",
	Jurisdiction: "Canada",
	Category:     program.CategoryBenefits,
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRegistry = mocks.NewMockRegistry(s.ctrl)
	s.mockRetriever = mocks.NewMockRetriever(s.ctrl)
	s.mockEvaluator = mocks.NewMockEvaluator(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.dispatcher, err = New(s.mockRegistry, s.mockRetriever, s.mockEvaluator,
		WithLogger(logger),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
}

func (s *DispatcherSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DispatcherSuite) page(text string) retrieval.Success {
	return retrieval.Success{Text: text, VerifiedOn: testutil.FixedDate}
}

func (s *DispatcherSuite) call(tool, args string) (*Result, error) {
	return s.dispatcher.Call(testutil.Context(), tool, json.RawMessage(args))
}

// =============================================================================
// Constructor Tests (Invariant Enforcement)
// =============================================================================

func (s *DispatcherSuite) TestNew() {
	s.Run("nil registry returns error", func() {
		_, err := New(nil, s.mockRetriever, s.mockEvaluator)
		s.ErrorContains(err, "registry is required")
	})

	s.Run("nil retriever returns error", func() {
		_, err := New(s.mockRegistry, nil, s.mockEvaluator)
		s.ErrorContains(err, "retriever is required")
	})

	s.Run("nil evaluator returns error", func() {
		_, err := New(s.mockRegistry, s.mockRetriever, nil)
		s.ErrorContains(err, "evaluator is required")
	})
}

// =============================================================================
// Tool Declarations
// =============================================================================

func (s *DispatcherSuite) TestTools() {
	ids := []string{"ccb", "gst_credit"}
	s.mockRegistry.EXPECT().IDs().Return(ids)

	specs := s.dispatcher.Tools()

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
		props := spec.InputSchema["properties"].(map[string]any)
		programID := props["program_id"].(map[string]any)
		s.Equal(ids, programID["enum"], spec.Name)

		_, hasContext := props["user_context"]
		s.Equal(spec.Name == ToolEligibilityCheck, hasContext, spec.Name)
	}
	s.Equal([]string{
		ToolExplainProgram,
		ToolGetEligibilityCriteria,
		ToolEligibilityCheck,
		ToolGenerateChecklist,
		ToolTimeline,
		ToolQuestionsForProfessional,
	}, names)
}

// =============================================================================
// Validation Stage
// =============================================================================
// Justification: invalid calls must stop before any registry lookup or
// network fetch, so no collaborator expectations are set here.

func (s *DispatcherSuite) TestValidationErrors() {
	tests := []struct {
		name string
		tool string
		args string
		msg  string
	}{
		{"unknown tool", "file_taxes", `{"program_id":"ccb"}`, "Unknown tool: file_taxes"},
		{"missing arguments", ToolExplainProgram, ``, "arguments are required"},
		{"null arguments", ToolExplainProgram, `null`, "arguments are required"},
		{"arguments not an object", ToolExplainProgram, `["ccb"]`, "arguments must be an object"},
		{"missing program_id", ToolTimeline, `{}`, "program_id is a required field"},
		{"program_id not a string", ToolTimeline, `{"program_id":42}`, "program_id must be a string"},
		{"missing user_context", ToolEligibilityCheck, `{"program_id":"ccb"}`, "user_context is required"},
		{"null user_context", ToolEligibilityCheck, `{"program_id":"ccb","user_context":null}`, "user_context is required"},
		{"user_context not an object", ToolEligibilityCheck, `{"program_id":"ccb","user_context":"rich"}`, "user_context must be an object"},
		{"income wrong type", ToolEligibilityCheck, `{"program_id":"ccb","user_context":{"income":"high"}}`, "user_context.income must be a number"},
		{"hasChildren wrong type", ToolEligibilityCheck, `{"program_id":"ccb","user_context":{"hasChildren":"yes"}}`, "user_context.hasChildren must be a boolean"},
		{"childrenAges not an array", ToolEligibilityCheck, `{"program_id":"ccb","user_context":{"childrenAges":4}}`, "user_context.childrenAges must be an array"},
		{"negative income", ToolEligibilityCheck, `{"program_id":"ccb","user_context":{"income":-1}}`, "user_context.income must be 0 or greater"},
		{"negative child age", ToolEligibilityCheck, `{"program_id":"ccb","user_context":{"childrenAges":[3,-2]}}`, "user_context.childrenAges[1] must be 0 or greater"},
		{"program_id differs only by case", ToolTimeline, `{"PROGRAM_ID":"gst_credit"}`, "PROGRAM_ID is not a known argument, use program_id"},
		{"user_context key differs only by case", ToolEligibilityCheck, `{"program_id":"ccb","user_context":{"Income":40000}}`, "user_context.Income is not a known argument, use user_context.income"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			res, err := s.call(tt.tool, tt.args)
			s.Nil(res)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.Equal(tt.msg, dErrors.PublicMessage(err))
		})
	}
}

func (s *DispatcherSuite) TestUnknownFieldsAreIgnored() {
	s.mockRegistry.EXPECT().Lookup("ccb").Return(ccb, nil)
	s.mockRetriever.EXPECT().Retrieve(gomock.Any(), ccb.URL).Return(s.page("text"))

	res, err := s.call(ToolTimeline, `{"program_id":"ccb","verbose":true}`)

	s.NoError(err)
	s.NotNil(res)
}

// =============================================================================
// Resolve Stage
// =============================================================================

func (s *DispatcherSuite) TestUnknownProgramIsNotFound() {
	s.mockRegistry.EXPECT().Lookup("oas").Return(program.Descriptor{}, fmt.Errorf("program %q: %w", "oas", sentinel.ErrNotFound))

	res, err := s.call(ToolExplainProgram, `{"program_id":"oas"}`)

	s.Nil(res)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal("Program oas not found", dErrors.PublicMessage(err))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ToolCalls.WithLabelValues(ToolExplainProgram, "not_found")))
}

// =============================================================================
// Retrieve and Compose Stages
// =============================================================================

func (s *DispatcherSuite) TestContentToolsWrapRetrievedText() {
	for _, t := range toolTable {
		if t.evaluates {
			continue
		}
		s.Run(t.name, func() {
			s.mockRegistry.EXPECT().Lookup("ccb").Return(ccb, nil)
			s.mockRetriever.EXPECT().Retrieve(gomock.Any(), ccb.URL).Return(s.page("Tax-free monthly payment."))

			res, err := s.call(t.name, `{"program_id":"ccb"}`)

			s.Require().NoError(err)
			s.True(strings.HasPrefix(res.Text, "**Instruction:** "+t.instruction))
			s.Contains(res.Text, "Tax-free monthly payment.")
			s.True(strings.HasSuffix(res.Text, "Source: "+ccb.URL+" (last verified 2025-03-14)"))
			s.Equal(1, strings.Count(res.Text, "Source:"))
		})
	}
}

func (s *DispatcherSuite) TestRetrievalFailureIsTextNotError() {
	s.mockRegistry.EXPECT().Lookup("ccb").Return(ccb, nil)
	s.mockRetriever.EXPECT().Retrieve(gomock.Any(), ccb.URL).
		Return(retrieval.Failure{Kind: retrieval.KindHTTP, Details: "HTTP 404: Not Found"})

	res, err := s.call(ToolExplainProgram, `{"program_id":"ccb"}`)

	s.Require().NoError(err)
	s.Equal("Error: Retrieval failed - HTTP 404: Not Found", res.Text)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ToolCalls.WithLabelValues(ToolExplainProgram, "retrieval_failed")))
}

func (s *DispatcherSuite) TestRetrievalFailureSkipsEvaluation() {
	s.mockRegistry.EXPECT().Lookup("ccb").Return(ccb, nil)
	s.mockRetriever.EXPECT().Retrieve(gomock.Any(), ccb.URL).
		Return(retrieval.Failure{Kind: retrieval.KindTimeout, Details: "no response within 15s"})

	res, err := s.call(ToolEligibilityCheck, `{"program_id":"ccb","user_context":{"income":1}}`)

	s.Require().NoError(err)
	s.Equal("Error: Retrieval failed - timeout: no response within 15s", res.Text)
}

// =============================================================================
// Evaluate Stage
// =============================================================================

func (s *DispatcherSuite) TestEligibilityCheckPassesFactsToEvaluator() {
	income, province, hasChildren := 65000.0, "Canada", true
	want := eligibility.Facts{
		Income:       &income,
		HasChildren:  &hasChildren,
		ChildrenAges: []float64{2, 4},
		Province:     &province,
	}
	verdict := eligibility.Verdict{Status: eligibility.StatusEligible, Reasons: []string{}, MissingInfo: []string{}}

	s.mockRegistry.EXPECT().Lookup("ccb").Return(ccb, nil)
	s.mockRetriever.EXPECT().Retrieve(gomock.Any(), ccb.URL).Return(s.page("ignored"))
	s.mockEvaluator.EXPECT().Evaluate("ccb", want).Return(verdict, nil)

	res, err := s.call(ToolEligibilityCheck,
		`{"program_id":"ccb","user_context":{"income":65000,"hasChildren":true,"childrenAges":[2,4],"province":"Canada","businessType":null}}`)

	s.Require().NoError(err)
	s.True(strings.HasPrefix(res.Text, "Eligibility Status: eligible"))
	s.NotContains(res.Text, "ignored")
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Verdicts.WithLabelValues("ccb", "eligible")))
}

func (s *DispatcherSuite) TestEmptyUserContextIsAccepted() {
	s.mockRegistry.EXPECT().Lookup("ccb").Return(ccb, nil)
	s.mockRetriever.EXPECT().Retrieve(gomock.Any(), ccb.URL).Return(s.page(""))
	s.mockEvaluator.EXPECT().Evaluate("ccb", eligibility.Facts{}).Return(eligibility.Verdict{
		Status:      eligibility.StatusUnclear,
		Reasons:     []string{},
		MissingInfo: []string{"hasChildren", "childrenAges", "income", "province"},
	}, nil)

	res, err := s.call(ToolEligibilityCheck, `{"program_id":"ccb","user_context":{}}`)

	s.Require().NoError(err)
	s.Contains(res.Text, "Missing Information: hasChildren, childrenAges, income, province")
}

func (s *DispatcherSuite) TestMissingRuleIsInternalError() {
	s.mockRegistry.EXPECT().Lookup("ccb").Return(ccb, nil)
	s.mockRetriever.EXPECT().Retrieve(gomock.Any(), ccb.URL).Return(s.page(""))
	s.mockEvaluator.EXPECT().Evaluate("ccb", gomock.Any()).Return(eligibility.Verdict{}, eligibility.ErrRuleMissing)

	res, err := s.call(ToolEligibilityCheck, `{"program_id":"ccb","user_context":{}}`)

	s.Nil(res)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, eligibility.ErrRuleMissing)
	s.Equal("internal error", dErrors.PublicMessage(err))
}
