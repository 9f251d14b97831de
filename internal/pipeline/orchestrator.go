package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Epistemic-Technology/schemacast/internal/config"
	"github.com/Epistemic-Technology/schemacast/internal/documents"
	"github.com/Epistemic-Technology/schemacast/internal/llm"
	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/internal/schema"
	"github.com/Epistemic-Technology/schemacast/models"
)

// Options selects the pipeline variant.
type Options struct {
	// TwoStage inserts the schema-free structuring pass before mapping.
	TwoStage bool
	// Model overrides the client's default model for both passes.
	Model string
}

// Result describes one run. It is returned for every run, failed or not.
// Candidate is whatever the mapper produced, valid or not; Final only
// returns it once validation passed.
type Result struct {
	ID            string                    `json:"id"`
	PromptVersion string                    `json:"prompt_version"`
	States        []State                   `json:"states"`
	Intermediate  models.IntermediateRecord `json:"intermediate,omitempty"`
	Candidate     any                       `json:"candidate,omitempty"`
	RawOutput     string                    `json:"raw_output,omitempty"`
	Outcome       *models.ValidationOutcome `json:"outcome,omitempty"`
	Failure       *Failure                  `json:"failure,omitempty"`
	Duration      time.Duration             `json:"duration"`
}

// State returns the state the run ended in.
func (r *Result) State() State {
	if len(r.States) == 0 {
		return StateIdle
	}
	return r.States[len(r.States)-1]
}

// Final returns the validated output. ok is false unless the run reached
// StateDone.
func (r *Result) Final() (output any, ok bool) {
	if r.State() != StateDone || r.Outcome == nil || !r.Outcome.Valid {
		return nil, false
	}
	return r.Candidate, true
}

// Orchestrator drives a conversion through its stages. One Orchestrator may
// serve concurrent runs; runs share only the completion client.
type Orchestrator struct {
	structurer *llm.Structurer
	mapper     *llm.Mapper
	opts       Options
	log        logger.Logger
}

func New(client llm.Completer, opts Options, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		structurer: llm.NewStructurer(client, opts.Model, log),
		mapper:     llm.NewMapper(client, opts.Model, log),
		opts:       opts,
		log:        log,
	}
}

// NewFromConfig validates cfg and builds an Orchestrator over an OpenAI
// client. A missing credential is returned as a KindConfiguration Failure
// before anything else happens.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, classify(StateIdle, err)
	}
	client, err := llm.NewClient(cfg.LLMConfig(), log)
	if err != nil {
		return nil, &Failure{Kind: KindConfiguration, Stage: StateIdle, Message: err.Error(), Err: err}
	}
	return New(client, Options{TwoStage: cfg.TwoStage, Model: cfg.Model}, log), nil
}

// TwoStage reports whether runs include the structuring pass.
func (o *Orchestrator) TwoStage() bool { return o.opts.TwoStage }

// run tracks a single pass through the state machine.
type run struct {
	result  *Result
	log     logger.Logger
	started time.Time
}

func (o *Orchestrator) newRun() *run {
	id := uuid.NewString()
	r := &run{
		result: &Result{
			ID:            id,
			PromptVersion: llm.PromptVersion,
			States:        []State{StateIdle},
		},
		log:     o.log.With("run=" + id[:8]),
		started: time.Now(),
	}
	return r
}

func (r *run) enter(s State) {
	r.log.Debug("%s -> %s", r.result.State(), s)
	r.result.States = append(r.result.States, s)
}

func (r *run) fail(err error) (*Result, error) {
	stage := r.result.State()
	f := classify(stage, err)
	r.log.Error("Run failed in %s (%s): %s", stage, f.Kind, f.Message)
	r.result.Failure = f
	r.enter(StateFailed)
	r.result.Duration = time.Since(r.started)
	return r.result, f
}

func (r *run) done() (*Result, error) {
	r.enter(StateDone)
	r.result.Duration = time.Since(r.started)
	r.log.Info("Run completed in %s", r.result.Duration.Round(time.Millisecond))
	return r.result, nil
}

// RunSchema converts inputText into JSON conforming to schemaText. The
// returned Result is never nil; when the run fails the error is the same
// *Failure stored in Result.Failure.
func (o *Orchestrator) RunSchema(ctx context.Context, inputText, schemaText string) (*Result, error) {
	return o.runSchema(ctx, o.newRun(), inputText, schemaText)
}

// RunDocument extracts text from a raw document, then continues as
// RunSchema.
func (o *Orchestrator) RunDocument(ctx context.Context, input models.RawInput, schemaText string) (*Result, error) {
	r := o.newRun()
	r.enter(StateExtracting)
	text, err := documents.ExtractText(input, r.log)
	if err != nil {
		return r.fail(err)
	}
	return o.runSchema(ctx, r, text, schemaText)
}

func (o *Orchestrator) runSchema(ctx context.Context, r *run, inputText, schemaText string) (*Result, error) {
	r.log.Info("Starting run (two_stage=%t, prompt %s, %d input chars)", o.opts.TwoStage, llm.PromptVersion, len(inputText))

	r.enter(StateLoadingSchema)
	s, err := schema.Load(schemaText)
	if err != nil {
		return r.fail(err)
	}
	compiled, err := s.Compile()
	if err != nil {
		return r.fail(err)
	}

	var (
		candidate any
		raw       string
	)
	if o.opts.TwoStage {
		r.enter(StateStructuring)
		record, err := o.structurer.Structure(ctx, inputText)
		if err != nil {
			return r.fail(err)
		}
		r.result.Intermediate = record

		r.enter(StateMapping)
		candidate, raw, err = o.mapper.MapRecord(ctx, s.Raw, record)
		r.result.RawOutput = raw
		if err != nil {
			return r.fail(err)
		}
	} else {
		r.enter(StateMapping)
		candidate, raw, err = o.mapper.Map(ctx, s.Raw, inputText)
		r.result.RawOutput = raw
		if err != nil {
			return r.fail(err)
		}
	}
	r.result.Candidate = candidate

	r.enter(StateValidating)
	if err := schema.ValidateCompiled(compiled, candidate); err != nil {
		outcome := models.ValidationOutcome{Valid: false, Message: err.Error()}
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			outcome = verr.Outcome()
		}
		r.result.Outcome = &outcome
		return r.fail(err)
	}
	r.result.Outcome = &models.ValidationOutcome{Valid: true}
	return r.done()
}

// RunStructured runs only the structuring pass and returns the intermediate
// record. Errors are *Failure values.
func (o *Orchestrator) RunStructured(ctx context.Context, text string) (models.IntermediateRecord, error) {
	r := o.newRun()
	r.enter(StateStructuring)
	record, err := o.structurer.Structure(ctx, text)
	if err != nil {
		_, f := r.fail(err)
		return nil, f
	}
	r.result.Intermediate = record
	r.done()
	return record, nil
}
