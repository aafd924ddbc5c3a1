// Package pipeline orchestrates one analytics request end to end:
// classify the question, generate and sanitize SQL, execute it read-only,
// then derive a chart shape and a Spanish narrative. Every stage failure
// is converted into an explained error response; no stage ever retries.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/consulta/consulta/internal/chart"
	"github.com/consulta/consulta/internal/classifier"
	"github.com/consulta/consulta/internal/insights"
	"github.com/consulta/consulta/internal/llm"
	"github.com/consulta/consulta/internal/observability"
	"github.com/consulta/consulta/internal/sqlguard"
	"github.com/consulta/consulta/internal/warehouse"
)

// SQLGenerator produces one candidate statement per question.
type SQLGenerator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// QueryExecutor runs a sanitized statement against the warehouse.
type QueryExecutor interface {
	ExecuteReadOnly(ctx context.Context, statement string) (warehouse.Result, error)
}

// Narrator turns a successful result into a Spanish narrative.
type Narrator interface {
	Generate(ctx context.Context, question, sqlQuery string, result warehouse.Result, mode insights.Mode) string
}

// Request is one natural language analytics question.
type Request struct {
	Question string
	Mode     insights.Mode
}

// Metadata describes how a request was handled.
type Metadata struct {
	QueryID         string                `json:"query_id"`
	Complexity      classifier.Complexity `json:"complexity"`
	UsedFastPath    bool                  `json:"used_fast_path"`
	Confidence      float64               `json:"confidence"`
	Reason          string                `json:"reason"`
	ExecutionTimeMs int64                 `json:"execution_time_ms"`
}

// Response is the assembled answer. Result and Error are mutually
// exclusive; Chart exists only for a non-empty successful Result.
type Response struct {
	Success  bool              `json:"success"`
	Response string            `json:"response"`
	SQLQuery string            `json:"sql_query,omitempty"`
	Result   *warehouse.Result `json:"query_results,omitempty"`
	Chart    *chart.Spec       `json:"chart_data,omitempty"`
	Error    string            `json:"error,omitempty"`
	Metadata Metadata          `json:"metadata"`
}

// Options carries the pipeline's explicit dependencies.
type Options struct {
	Generator    SQLGenerator
	Executor     QueryExecutor
	Narrator     Narrator
	Logger       *slog.Logger
	RowCap       int
	QueryTimeout time.Duration
}

// Pipeline answers analytics questions. Safe for concurrent use.
type Pipeline struct {
	generator    SQLGenerator
	executor     QueryExecutor
	narrator     Narrator
	logger       *slog.Logger
	rowCap       int
	queryTimeout time.Duration
}

func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Generator == nil:
		return nil, &ConfigurationError{Missing: "sql generator"}
	case opts.Executor == nil:
		return nil, &ConfigurationError{Missing: "query executor"}
	case opts.Narrator == nil:
		return nil, &ConfigurationError{Missing: "insights narrator"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RowCap <= 0 {
		opts.RowCap = sqlguard.DefaultRowCap
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 20 * time.Second
	}
	return &Pipeline{
		generator:    opts.Generator,
		executor:     opts.Executor,
		narrator:     opts.Narrator,
		logger:       opts.Logger,
		rowCap:       opts.RowCap,
		queryTimeout: opts.QueryTimeout,
	}, nil
}

// Run answers one question. It always returns a well-formed Response;
// stage failures surface as Success=false with an explanatory narrative.
func (p *Pipeline) Run(ctx context.Context, req Request) Response {
	start := time.Now()
	queryID := uuid.NewString()
	logger := p.logger.With(
		slog.String("query_id", queryID),
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
	)

	decision := classifier.Classify(req.Question)
	observability.ObserveClassification(string(decision.Complexity), string(decision.Route))
	logger.Info("question classified",
		slog.String("complexity", string(decision.Complexity)),
		slog.String("route", string(decision.Route)),
		slog.Float64("confidence", decision.Confidence),
	)

	meta := Metadata{
		QueryID:      queryID,
		Complexity:   decision.Complexity,
		UsedFastPath: decision.UseFastPath,
		Confidence:   decision.Confidence,
		Reason:       decision.Reason,
	}

	switch decision.Route {
	case classifier.RouteFastPath, classifier.RouteFullAgent:
		// The multi-step agent is not implemented; both routes execute
		// the single-call path and the decision stays informational.
	default:
		logger.Error("unknown route", slog.String("route", string(decision.Route)))
		observability.ObserveAnalyticsQuery("error")
		meta.ExecutionTimeMs = time.Since(start).Milliseconds()
		return Response{
			Success:  false,
			Response: insights.GenerateError("unknown routing decision"),
			Error:    "unknown routing decision",
			Metadata: meta,
		}
	}

	rawSQL, err := p.generator.Generate(ctx, req.Question)
	if err != nil {
		if llm.IsTimeout(err) {
			err = &TimeoutError{Stage: "generation", Err: err}
		}
		logger.Error("sql generation failed", slog.String("error", err.Error()))
		observability.ObserveAnalyticsQuery("generation_error")
		meta.ExecutionTimeMs = time.Since(start).Milliseconds()
		return Response{
			Success:  false,
			Response: insights.GenerateError(err.Error()),
			Error:    err.Error(),
			Metadata: meta,
		}
	}

	sanitized, err := sqlguard.SanitizeWithCap(rawSQL, p.rowCap)
	if err != nil {
		var unsafeErr *sqlguard.UnsafeQueryError
		if errors.As(err, &unsafeErr) {
			// The rejection reason mentions the generated SQL, so it is
			// logged but never returned to the caller.
			logger.Warn("unsafe query rejected", slog.String("reason", unsafeErr.Reason))
			observability.IncrementUnsafeQuery()
		} else {
			logger.Error("sanitization failed", slog.String("error", err.Error()))
		}
		observability.ObserveAnalyticsQuery("rejected")
		meta.ExecutionTimeMs = time.Since(start).Milliseconds()
		const userMessage = "La consulta generada no pasó las validaciones de seguridad."
		return Response{
			Success:  false,
			Response: insights.GenerateError(userMessage),
			Error:    userMessage,
			Metadata: meta,
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	result, err := p.executor.ExecuteReadOnly(execCtx, sanitized)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &TimeoutError{Stage: "execution", Err: err}
		}
		logger.Error("query execution failed",
			slog.String("sql", sanitized),
			slog.String("error", err.Error()),
		)
		observability.ObserveAnalyticsQuery("execution_error")
		meta.ExecutionTimeMs = time.Since(start).Milliseconds()
		return Response{
			Success:  false,
			Response: insights.GenerateError(err.Error()),
			SQLQuery: sanitized,
			Error:    err.Error(),
			Metadata: meta,
		}
	}
	observability.ObserveWarehouseQuery(result.Duration)

	chartSpec := chart.Generate(result.Columns, result.Rows)
	narrative := p.narrator.Generate(ctx, req.Question, sanitized, result, req.Mode)

	observability.ObserveAnalyticsQuery("success")
	logger.Info("analytics query answered",
		slog.Int("rows", len(result.Rows)),
		slog.Bool("chartable", chartSpec != nil),
		slog.Duration("warehouse_duration", result.Duration),
	)

	meta.ExecutionTimeMs = time.Since(start).Milliseconds()
	return Response{
		Success:  true,
		Response: narrative,
		SQLQuery: sanitized,
		Result:   &result,
		Chart:    chartSpec,
		Metadata: meta,
	}
}
