// Package pipeline runs an article through the Analyst, Architect and Writer
// stages, writes the combined artifact and logs the run to the record store.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"techwriter/internal/llm"
	"techwriter/internal/store"
)

// RecordInserter persists a finished run.
type RecordInserter interface {
	Insert(ctx context.Context, rec store.Record) (int64, error)
}

// Result describes a run. On failure it holds whatever was produced before
// the failing stage.
type Result struct {
	RunID      string
	State      State
	RecordID   int64
	Persisted  bool
	OutputPath string
	Analysis   string
	Blueprint  string
	Article    string
	Stages     []StageOutput
}

// Orchestrator drives one run at a time. It holds no per-run state, so a
// single Orchestrator can be reused for sequential runs.
type Orchestrator struct {
	client   llm.Client
	records  RecordInserter
	reporter Reporter
	logger   *zap.Logger
	model    string
	stages   []Stage
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReporter sets the user-facing reporter.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithModelName is shown to the reporter at run start.
func WithModelName(model string) Option {
	return func(o *Orchestrator) { o.model = model }
}

// New builds an orchestrator. A nil records disables persistence.
func New(client llm.Client, records RecordInserter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		records:  records,
		reporter: NopReporter{},
		logger:   zap.NewNop(),
		stages:   []Stage{Analyst, Architect, Writer},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline for inputPath and writes the artifact to
// outputPath. Input, generation and output errors abort the run. A failed
// insert only produces a warning.
func (o *Orchestrator) Run(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	res := &Result{
		RunID:      uuid.NewString(),
		State:      StateStart,
		OutputPath: outputPath,
	}
	log := o.logger.With(zap.String("run_id", res.RunID))

	article, err := readArticle(inputPath)
	if err != nil {
		res.State = StateFailed
		log.Error("Cannot read input", zap.String("path", inputPath), zap.Error(err))
		return res, err
	}
	log.Info("Pipeline started",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("article_len", len(article)))
	o.reporter.RunStarted(inputPath, o.model)

	vars := Vars{Article: article}
	for _, stage := range o.stages {
		out, err := o.runStage(ctx, log, res, stage, vars)
		if err != nil {
			res.State = StateFailed
			return res, err
		}
		res.Stages = append(res.Stages, out)
		switch stage.State {
		case StateAnalyzing:
			vars.Analysis = out.Result
			res.Analysis = out.Result
		case StateArchitecting:
			vars.Blueprint = out.Result
			res.Blueprint = out.Result
		case StateWriting:
			res.Article = out.Result
		}
	}

	o.transition(log, res, StatePersisting)
	doc := ComposeArtifact(res.Stages, o.stages)
	if err := writeFileAtomic(outputPath, []byte(doc), 0o644); err != nil {
		res.State = StateFailed
		log.Error("Cannot write output", zap.String("path", outputPath), zap.Error(err))
		return res, &OutputError{Path: outputPath, Err: err}
	}
	log.Info("Artifact written", zap.String("path", outputPath), zap.Int("bytes", len(doc)))
	o.reporter.ArtifactWritten(outputPath, res.Article)

	o.persist(ctx, log, res, article)

	o.transition(log, res, StateDone)
	return res, nil
}

func (o *Orchestrator) runStage(ctx context.Context, log *zap.Logger, res *Result, stage Stage, vars Vars) (StageOutput, error) {
	o.transition(log, res, stage.State)
	o.reporter.StageStarted(stage)

	system, user := stage.Render(vars)
	text, err := o.client.CompleteWithSystem(llm.WithLabel(ctx, stage.Label()), system, user)
	if err != nil {
		log.Error("Stage failed", zap.String("stage", stage.Name), zap.Error(err))
		return StageOutput{}, &StageError{Stage: stage.Name, Err: err}
	}

	o.reporter.StageCompleted(stage, text)
	return StageOutput{Stage: stage.Name, System: system, User: user, Result: text}, nil
}

func (o *Orchestrator) persist(ctx context.Context, log *zap.Logger, res *Result, article string) {
	if o.records == nil {
		log.Info("Persistence disabled, skipping record insert")
		return
	}

	rec := store.Record{OriginalContent: article}
	for _, out := range res.Stages {
		switch out.Stage {
		case Analyst.Name:
			rec.AnalystPrompt, rec.AnalystResult = out.FullPrompt(), out.Result
		case Architect.Name:
			rec.ArchitectPrompt, rec.ArchitectResult = out.FullPrompt(), out.Result
		case Writer.Name:
			rec.WriterPrompt, rec.WriterResult = out.FullPrompt(), out.Result
		}
	}

	id, err := o.records.Insert(ctx, rec)
	if err != nil {
		log.Warn("Record insert failed, artifact kept", zap.Error(err))
		o.reporter.Warn("Could not save the run to the database", err)
		return
	}
	res.RecordID = id
	res.Persisted = true
	log.Info("Run persisted", zap.Int64("record_id", id))
	o.reporter.Persisted(id)
}

func (o *Orchestrator) transition(log *zap.Logger, res *Result, next State) {
	log.Debug("State transition", zap.String("from", string(res.State)), zap.String("to", string(next)))
	res.State = next
}

func readArticle(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &InputError{Path: path, Err: ErrInputNotFound}
		}
		return "", &InputError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return "", &InputError{Path: path, Err: errors.New("not valid UTF-8")}
	}
	return string(data), nil
}
