// Package engine answers natural-language questions by chaining metadata
// retrieval, model analysis, query synthesis, execution and response
// generation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/metadata"
	"github.com/leapstack-labs/askql/internal/retry"
	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/analysis"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/synth"
)

// Engine orchestrates one question at a time through the pipeline.
// Stages share no mutable state across requests.
type Engine struct {
	// Database adapter (lazy initialized when not injected)
	db          adapter.Adapter
	dbConfig    core.AdapterConfig
	dbConnected bool
	ownsDB      bool
	dbMu        sync.Mutex

	retriever  metadata.Retriever
	model      llm.Model
	prefix     string
	analyzer   *Analyzer
	parser     *analysis.Parser
	normalizer *synth.Normalizer
	synth      *synth.Synthesizer
	responder  *Responder
	execPolicy retry.Policy

	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Retriever supplies schema triples.
	Retriever metadata.Retriever
	// Model analyzes questions and phrases answers.
	Model llm.Model

	// Adapter is an already connected database. When nil, the engine
	// connects lazily using Target.
	Adapter adapter.Adapter
	// Target configures the lazily created adapter.
	Target core.AdapterConfig

	// Prefix is the metadata namespace (default metadata.DefaultPrefix).
	Prefix string
	// Schema qualifies bare table names (default synth.DefaultSchema).
	Schema string
	// GroupMatch selects the grouping repair policy: substring or exact.
	GroupMatch string

	// QueryTimeout bounds one execution attempt.
	QueryTimeout time.Duration
	// MaxRetries is the execution retry budget for transient failures.
	MaxRetries uint64
	// ReportErrors answers execution failures with their cause.
	ReportErrors bool

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. The database is connected on first execution
// unless cfg.Adapter is supplied.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("metadata retriever is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("language model is required")
	}
	if cfg.Adapter == nil && cfg.Target.Type == "" {
		return nil, fmt.Errorf("either an adapter or a target type is required")
	}

	matcher, err := synth.MatcherByName(cfg.GroupMatch)
	if err != nil {
		return nil, err
	}

	schema := cfg.Schema
	if schema == "" {
		schema = synth.DefaultSchema
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = metadata.DefaultPrefix
	}

	logger.Debug("initializing engine", "schema", schema, "prefix", prefix, "group_match", cfg.GroupMatch)

	return &Engine{
		db:          cfg.Adapter,
		dbConfig:    cfg.Target,
		dbConnected: cfg.Adapter != nil,
		retriever:   cfg.Retriever,
		model:       cfg.Model,
		prefix:      prefix,
		analyzer:    NewAnalyzer(cfg.Model, schema, logger),
		parser:      analysis.NewParser(),
		normalizer:  synth.NewNormalizer(schema, matcher),
		synth:       synth.NewSynthesizer(schema),
		responder:   NewResponder(cfg.Model, cfg.ReportErrors, logger),
		execPolicy:  retry.Policy{MaxRetries: cfg.MaxRetries, AttemptTimeout: cfg.QueryTimeout},
		logger:      logger,
	}, nil
}

// ensureDBConnected lazily connects to the database.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)

	db, err := adapter.Open(ctx, e.dbConfig, e.logger)
	if err != nil {
		return err
	}

	e.db = db
	e.dbConnected = true
	e.ownsDB = true

	e.logger.Debug("database connected", "dialect", db.DialectName())
	return nil
}

// Adapter returns the connected database adapter, connecting if needed.
func (e *Engine) Adapter(ctx context.Context) (adapter.Adapter, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.db, nil
}

// Close releases the database connection if the engine opened it.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.db != nil && e.ownsDB {
		if err := e.db.Close(); err != nil {
			return fmt.Errorf("errors closing engine: %w", err)
		}
	}
	return nil
}

// Plan is the result of the stages up to and including synthesis.
type Plan struct {
	RequestID  string               `json:"request_id"`
	Question   string               `json:"question"`
	Triples    int                  `json:"triples"`
	Analysis   string               `json:"analysis,omitempty"`
	Components core.QueryComponents `json:"components"`
	SQL        string               `json:"sql,omitempty"`
}

// Report is everything produced while answering one question.
type Report struct {
	Plan
	Result core.Result `json:"result"`
	Answer string      `json:"answer"`
}

// Prepare runs retrieval, analysis, parsing, normalization and synthesis
// without touching the database.
func (e *Engine) Prepare(ctx context.Context, question string) (*Plan, error) {
	plan := &Plan{RequestID: uuid.NewString(), Question: question}
	logger := e.logger.With(slog.String("request_id", plan.RequestID))
	logger.Debug("preparing question", slog.String("question", question))

	triples := e.fetchMetadata(ctx, logger)
	plan.Triples = len(triples)
	if len(triples) == 0 {
		return plan, core.ErrMetadataUnavailable
	}

	text, err := e.analyzer.Analyze(ctx, triples, question)
	if err != nil {
		return plan, err
	}
	plan.Analysis = text

	parsed := e.parser.Parse(text)
	if parsed.IsEmpty() {
		logger.Warn("analysis had no recognizable sections", slog.String("analysis", text))
	}

	plan.Components = e.normalizer.Normalize(parsed)
	logger.Debug("components normalized",
		slog.Any("tables", plan.Components.Tables),
		slog.Int("columns", len(plan.Components.Columns)),
		slog.Int("filters", len(plan.Components.Filters)),
		slog.Int("joins", len(plan.Components.Joins)),
		slog.Any("group_by", plan.Components.GroupBy))

	sql, err := e.synth.Synthesize(plan.Components)
	if err != nil {
		if parsed.IsEmpty() {
			err = fmt.Errorf("%w (%w)", err, core.ErrAnalysisMalformed)
		}
		return plan, err
	}
	plan.SQL = sql
	logger.Debug("sql synthesized", slog.String("sql", sql))
	return plan, nil
}

// fetchMetadata treats retrieval errors as "no metadata".
func (e *Engine) fetchMetadata(ctx context.Context, logger *slog.Logger) []core.Triple {
	triples, err := e.retriever.Retrieve(ctx, e.prefix)
	if err != nil {
		logger.Error("metadata retrieval failed", slog.String("prefix", e.prefix), slog.String("error", err.Error()))
		return nil
	}
	logger.Debug("metadata retrieved", slog.Int("triples", len(triples)))
	return triples
}

// Ask answers question. The returned report always carries a user-facing
// Answer; the error reports why the pipeline stopped early, if it did.
func (e *Engine) Ask(ctx context.Context, question string) (*Report, error) {
	plan, err := e.Prepare(ctx, question)
	report := &Report{Plan: *plan}
	if err != nil {
		report.Answer = failureMessage(err)
		return report, err
	}

	logger := e.logger.With(slog.String("request_id", plan.RequestID))

	db, err := e.Adapter(ctx)
	if err != nil {
		report.Answer = failureMessage(err)
		return report, err
	}

	report.Result = NewExecutor(db, e.execPolicy, logger).Execute(ctx, plan.SQL)

	answer, err := e.responder.Respond(ctx, question, report.Result)
	if err != nil {
		report.Answer = failureMessage(err)
		return report, err
	}
	report.Answer = answer

	logger.Info("question answered",
		slog.String("outcome", string(report.Result.Outcome)),
		slog.Int("rows", report.Result.Len()))
	return report, nil
}

// Answer is Ask reduced to the user-facing text. It never fails.
func (e *Engine) Answer(ctx context.Context, question string) string {
	report, _ := e.Ask(ctx, question)
	return report.Answer
}

func failureMessage(err error) string {
	if errors.Is(err, core.ErrMetadataUnavailable) {
		return MsgNoMetadata
	}
	return fmt.Sprintf(msgProcessingError, err.Error())
}
