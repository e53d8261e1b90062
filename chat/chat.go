// Package chat implements the conversation orchestrator: one user question
// becomes one answer through a retrieval step and a formatting step, and the
// exchange is recorded in the session only when both succeed.
//
// The orchestrator initializes from configuration via New, creating the
// retrieval and formatting services and the session store internally.
// Functional options supply any of them directly, in which case the config
// section for that subsystem is not used.
//
//	o, err := chat.New(ctx, &cfg)
//	reply, err := o.Ask(ctx, "", "How many orders last month?")
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/dbchat/agent"
	"github.com/tailored-agentic-units/dbchat/database"
	"github.com/tailored-agentic-units/dbchat/formatting"
	"github.com/tailored-agentic-units/dbchat/hints"
	"github.com/tailored-agentic-units/dbchat/observability"
	"github.com/tailored-agentic-units/dbchat/retrieval"
	"github.com/tailored-agentic-units/dbchat/session"
)

// Reply is the outcome of Ask.
type Reply struct {
	SessionID string
	Answer    string
}

// Option configures an Orchestrator before config-driven initialization.
// Subsystems provided by options are not created from config.
type Option func(*Orchestrator)

// WithRetriever overrides the config-created retrieval service.
func WithRetriever(r retrieval.Service) Option {
	return func(o *Orchestrator) { o.retriever = r }
}

// WithFormatter overrides the config-created formatting service.
func WithFormatter(f formatting.Service) Option {
	return func(o *Orchestrator) { o.formatter = f }
}

// WithStore overrides the config-created session store.
func WithStore(s *session.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithObserver overrides the configured observer.
func WithObserver(obs observability.Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// Orchestrator sequences retrieval, prompt composition, formatting and
// recording for each turn. Turns on one session run one at a time in call
// order; different sessions proceed concurrently.
type Orchestrator struct {
	cfg               Config
	agentsMu          sync.Mutex
	agents            *agent.Registry
	retriever         retrieval.Service
	formatter         formatting.Service
	store             *session.Store
	observer          observability.Observer
	retrievalTimeout  time.Duration
	formattingTimeout time.Duration
	closers           []func() error
}

// New creates an Orchestrator from configuration. ctx bounds the startup
// work of opening the database and loading schema notes. Agents are only
// built when a service is not supplied through an option. Non-positive step
// timeouts fall back to the defaults.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:               *cfg,
		retrievalTimeout:  cfg.RetrievalTimeout,
		formattingTimeout: cfg.FormattingTimeout,
	}
	if o.retrievalTimeout <= 0 {
		o.retrievalTimeout = defaultRetrievalTimeout
	}
	if o.formattingTimeout <= 0 {
		o.formattingTimeout = defaultFormattingTimeout
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.observer == nil {
		obs, err := observability.Resolve(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		o.observer = obs
	}

	if o.store == nil {
		o.store = session.NewStore(&cfg.Session)
	}

	if o.formatter != nil && o.retriever != nil {
		return o, nil
	}

	reg, err := o.registry()
	if err != nil {
		return nil, err
	}

	if o.formatter == nil {
		a, err := reg.Get(AgentFormatter)
		if err != nil {
			return nil, err
		}
		o.formatter = formatting.NewAgentService(a)
	}

	if o.retriever == nil {
		r, closeFn, err := NewRetriever(ctx, cfg, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to create retrieval service: %w", err)
		}
		o.retriever = r
		if closeFn != nil {
			o.closers = append(o.closers, closeFn)
		}
	}

	return o, nil
}

// NewRetriever builds the retrieval service selected by cfg.Retrieval.Mode.
// SQL mode takes its translator from agents. The returned close function,
// when non-nil, releases the database.
func NewRetriever(ctx context.Context, cfg *Config, agents *agent.Registry) (retrieval.Service, func() error, error) {
	switch cfg.Retrieval.Mode {
	case retrieval.ModeRemote:
		if cfg.Retrieval.URL == "" {
			return nil, nil, fmt.Errorf("remote retrieval requires a url")
		}
		c, err := retrieval.NewClient(cfg.Retrieval.URL)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil

	case retrieval.ModeSQL, "":
		translator, err := agents.Get(AgentTranslator)
		if err != nil {
			return nil, nil, err
		}

		db, err := database.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}

		catalog, err := hints.Load(ctx, hints.NewStore(&cfg.Hints))
		if err != nil {
			db.Close()
			return nil, nil, err
		}

		svc, err := retrieval.NewSQL(ctx, &cfg.Retrieval, translator, db, cfg.Database.SampleRows, catalog.Text())
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return svc, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", retrieval.ErrUnknownMode, cfg.Retrieval.Mode)
	}
}

// Agents lists the configured agents.
func (o *Orchestrator) Agents() ([]agent.AgentInfo, error) {
	reg, err := o.registry()
	if err != nil {
		return nil, err
	}
	return reg.List(), nil
}

func (o *Orchestrator) registry() (*agent.Registry, error) {
	o.agentsMu.Lock()
	defer o.agentsMu.Unlock()

	if o.agents == nil {
		reg, err := NewAgentRegistry(&o.cfg)
		if err != nil {
			return nil, err
		}
		o.agents = reg
	}
	return o.agents, nil
}

// Store returns the orchestrator's session store.
func (o *Orchestrator) Store() *session.Store {
	return o.store
}

// Close releases resources opened by New.
func (o *Orchestrator) Close() error {
	var errs []error
	for _, c := range o.closers {
		errs = append(errs, c())
	}
	o.closers = nil
	return errors.Join(errs...)
}

// Ask is the inbound chat operation. It rejects blank questions with
// ErrInvalidInput, resolves the session (an empty sessionID starts a new
// one) and submits the question.
func (o *Orchestrator) Ask(ctx context.Context, sessionID, question string) (Reply, error) {
	if strings.TrimSpace(question) == "" {
		return Reply{SessionID: sessionID}, ErrInvalidInput
	}

	state := o.store.GetOrCreate(sessionID)
	answer, err := o.Submit(ctx, question, state)
	if err != nil {
		return Reply{SessionID: state.ID()}, err
	}
	return Reply{SessionID: state.ID(), Answer: answer}, nil
}

// Submit runs one turn against state: retrieve once, compose the prompt,
// format once, then record the exchange. The turn is recorded before Submit
// returns. On any failure state is left untouched and the error matches
// ErrRetrievalFailure or ErrFormattingFailure.
func (o *Orchestrator) Submit(ctx context.Context, question string, state *session.State) (string, error) {
	release, err := state.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("waiting for session %s: %w", state.ID(), err)
	}
	defer release()

	start := time.Now()
	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventSubmitStart,
		Level:     observability.LevelInfo,
		Timestamp: start,
		Source:    "chat.Submit",
		Data: map[string]any{
			"session_id":      state.ID(),
			"question_length": len(question),
			"turns":           state.Len(),
		},
	})

	res, err := o.retrieve(ctx, question)
	if err != nil {
		o.fail(ctx, state, "retrieval", err)
		return "", err
	}

	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventRetrievalComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "chat.Submit",
		Data: map[string]any{
			"session_id": state.ID(),
			"query":      res.Query,
		},
	})

	prompt := ComposePrompt(res.Query, res.Result)

	answer, err := o.format(ctx, prompt)
	if err != nil {
		o.fail(ctx, state, "formatting", err)
		return "", err
	}

	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventFormattingComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "chat.Submit",
		Data: map[string]any{
			"session_id":    state.ID(),
			"prompt_digest": Digest(prompt),
			"answer_length": len(answer),
		},
	})

	turn := o.store.RecordTurn(state, question, answer)

	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventTurnRecorded,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "chat.Submit",
		Data: map[string]any{
			"session_id": state.ID(),
			"turn_id":    turn.ID,
			"turns":      state.Len(),
			"duration":   time.Since(start),
		},
	})

	return answer, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, question string) (retrieval.Result, error) {
	res, err := callWithin(ctx, o.retrievalTimeout, func(ctx context.Context) (retrieval.Result, error) {
		return o.retriever.Retrieve(ctx, question)
	})
	if err != nil {
		return retrieval.Result{}, errors.Join(ErrRetrievalFailure, err)
	}
	if err := res.Validate(); err != nil {
		return retrieval.Result{}, errors.Join(ErrRetrievalFailure, err)
	}
	return res, nil
}

func (o *Orchestrator) format(ctx context.Context, prompt string) (string, error) {
	answer, err := callWithin(ctx, o.formattingTimeout, func(ctx context.Context) (string, error) {
		return o.formatter.Format(ctx, prompt)
	})
	if err != nil {
		return "", errors.Join(ErrFormattingFailure, err)
	}
	return answer, nil
}

func (o *Orchestrator) fail(ctx context.Context, state *session.State, stage string, err error) {
	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventError,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "chat.Submit",
		Data: map[string]any{
			"session_id": state.ID(),
			"stage":      stage,
			"error":      err,
		},
	})
}

// callWithin runs fn and returns once it finishes or the deadline passes,
// whichever comes first. A service that ignores cancellation cannot hold the
// turn past d. A zero d applies no deadline beyond ctx.
func callWithin[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
