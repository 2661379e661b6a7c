// Package dispatch routes tool calls through validation, program lookup,
// retrieval, optional eligibility evaluation and composition.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"plaingov/internal/compose"
	"plaingov/internal/dispatch/metrics"
	"plaingov/internal/eligibility"
	"plaingov/internal/program"
	"plaingov/internal/retrieval"
	dErrors "plaingov/pkg/domain-errors"
	"plaingov/pkg/platform/sentinel"
	"plaingov/pkg/requestcontext"
)

type Registry interface {
	Lookup(id string) (program.Descriptor, error)
	IDs() []string
}

type Retriever interface {
	Retrieve(ctx context.Context, url string) retrieval.Outcome
}

type Evaluator interface {
	Evaluate(programID string, f eligibility.Facts) (eligibility.Verdict, error)
}

// Result is the single text payload of a tool call. Retrieval failures are
// results too; only invalid input and configuration defects are errors.
type Result struct {
	Text string
}

// Dispatcher executes tool calls. It holds no per-call state and is safe for
// concurrent use.
type Dispatcher struct {
	registry  Registry
	retriever Retriever
	evaluator Evaluator
	tools     map[string]tool
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func New(registry Registry, retriever Retriever, evaluator Evaluator, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}

	d := &Dispatcher{
		registry:  registry,
		retriever: retriever,
		evaluator: evaluator,
		tools:     make(map[string]tool, len(toolTable)),
		logger:    slog.Default(),
	}
	for _, t := range toolTable {
		d.tools[t.name] = t
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Tools declares every tool, with program_id constrained to the registry.
func (d *Dispatcher) Tools() []ToolSpec {
	ids := d.registry.IDs()
	specs := make([]ToolSpec, 0, len(toolTable))
	for _, t := range toolTable {
		specs = append(specs, t.spec(ids))
	}
	return specs
}

// Call runs one tool. Errors are coded with pkg/domain-errors: validation and
// not-found errors describe caller mistakes, internal errors do not.
func (d *Dispatcher) Call(ctx context.Context, name string, rawArgs json.RawMessage) (*Result, error) {
	start := time.Now()

	t, ok := d.tools[name]
	if !ok {
		d.metrics.IncrementToolCall("unknown", "invalid")
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("Unknown tool: %s", name))
	}

	res, outcome, err := d.call(ctx, t, rawArgs)

	elapsed := time.Since(start)
	d.metrics.IncrementToolCall(t.name, outcome)
	d.metrics.ObserveCallLatency(t.name, elapsed)
	d.logger.InfoContext(ctx, "tool call",
		"request_id", requestcontext.RequestID(ctx),
		"tool", t.name,
		"outcome", outcome,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, err
}

func (d *Dispatcher) call(ctx context.Context, t tool, rawArgs json.RawMessage) (*Result, string, error) {
	args, err := decodeArgs(rawArgs, t.evaluates)
	if err != nil {
		return nil, "invalid", err
	}

	desc, err := d.registry.Lookup(args.ProgramID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "not_found", dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("Program %s not found", args.ProgramID))
		}
		return nil, "internal", dErrors.Wrap(err, dErrors.CodeInternal, "program lookup failed")
	}

	var page retrieval.Success
	switch outcome := d.retriever.Retrieve(ctx, desc.URL).(type) {
	case retrieval.Failure:
		return &Result{Text: compose.Failure(outcome)}, "retrieval_failed", nil
	case retrieval.Success:
		page = outcome
	default:
		return nil, "internal", dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unexpected retrieval outcome %T", outcome))
	}

	if !t.evaluates {
		return &Result{Text: compose.Content(desc, t.instruction, page)}, "ok", nil
	}

	verdict, err := d.evaluator.Evaluate(desc.ID, args.UserContext.ToFacts())
	if err != nil {
		d.logger.ErrorContext(ctx, "eligibility evaluation failed",
			"request_id", requestcontext.RequestID(ctx),
			"program_id", desc.ID,
			"error", err,
		)
		return nil, "internal", dErrors.Wrap(err, dErrors.CodeInternal, "eligibility evaluation failed")
	}
	d.metrics.IncrementVerdict(desc.ID, string(verdict.Status))
	return &Result{Text: compose.Eligibility(desc, verdict, page)}, "ok", nil
}
