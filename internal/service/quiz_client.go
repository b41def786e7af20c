package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/api"
	"github.com/stemsi/exstem-quiz-client/internal/config"
	"github.com/stemsi/exstem-quiz-client/internal/model"
	"github.com/stemsi/exstem-quiz-client/internal/store"
)

var (
	ErrNotLoaded        = errors.New("questions not loaded")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrChoiceOutOfRange = errors.New("choice out of range")
	// ErrStale is returned to a load whose response arrived after a newer load
	// started. Its result is discarded.
	ErrStale = errors.New("superseded by a newer load")
)

// RelaunchInstructions is shown by the reload control in relaunch mode.
const RelaunchInstructions = "Reloading here keeps the current session. To get a new question set, destroy this quiz environment and launch it again, then open the page anew."

// QuizAPI is the quiz server as seen by the client.
type QuizAPI interface {
	FetchQuestions(ctx context.Context) (model.QuestionSet, error)
	// AdoptSession makes the fetched set's session the one used from now on.
	AdoptSession(set model.QuestionSet)
	Submit(ctx context.Context, payload model.SubmissionPayload) (model.ScoreResult, error)
	ResetSession() error
}

// Notifier receives every view rebuilt after a state change. Publish is
// called with the client locked, in state order, and must not block or call
// back into the client.
type Notifier interface {
	Publish(view model.QuizView)
}

// NopNotifier discards views.
type NopNotifier struct{}

func (NopNotifier) Publish(model.QuizView) {}

// Options tunes client behaviour. PassPercent is used as given; config.Load
// supplies its default.
type Options struct {
	ReloadMode  config.ReloadMode
	PassPercent int
}

// QuizClient fetches a session's questions, keeps the user's choices in an
// AnswerStore and submits them for scoring.
//
// All state lives behind mu, which also serializes the load-modify-store of
// the AnswerMap, so there is a single writer even though HTTP handlers and
// websocket readers call in from many goroutines. Network calls run outside mu.
// Views are published before mu is released so subscribers see them in order.
type QuizClient struct {
	api      QuizAPI
	store    store.AnswerStore
	notifier Notifier
	log      zerolog.Logger
	opts     Options

	mu         sync.Mutex
	generation uint64
	phase      model.Phase
	session    string
	questions  []model.Question
	positions  map[string]int
	result     *model.ScoreResult
	lastErr    error
}

// NewQuizClient creates a QuizClient in the unloaded phase.
func NewQuizClient(quizAPI QuizAPI, answers store.AnswerStore, notifier Notifier, opts Options, log zerolog.Logger) *QuizClient {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if opts.ReloadMode == "" {
		opts.ReloadMode = config.ReloadReset
	}
	return &QuizClient{
		api:      quizAPI,
		store:    answers,
		notifier: notifier,
		log:      log.With().Str("component", "quiz_client").Logger(),
		opts:     opts,
		phase:    model.PhaseUnloaded,
	}
}

// LoadQuestions fetches the session and its questions and replaces the
// in-memory set. Only the newest load may apply its response.
func (c *QuizClient) LoadQuestions(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	set, err := c.api.FetchQuestions(ctx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.log.Warn().Uint64("generation", gen).Msg("Discarding stale question load")
		return ErrStale
	}
	if err != nil {
		c.lastErr = err
		c.publishLocked(ctx)
		c.mu.Unlock()
		return fmt.Errorf("load questions: %w", err)
	}

	c.api.AdoptSession(set)
	c.session = set.Session
	c.questions = set.Questions
	c.positions = make(map[string]int, len(set.Questions))
	for i, q := range set.Questions {
		c.positions[q.ID.Key()] = i
	}
	c.phase = model.PhaseLoaded
	c.lastErr = nil
	c.publishLocked(ctx)
	c.mu.Unlock()

	c.log.Info().
		Str("session", set.Session).
		Int("questions", len(set.Questions)).
		Msgf("Loaded %d questions (session: %s)", len(set.Questions), set.Session)

	return nil
}

func (c *QuizClient) publishLocked(ctx context.Context) {
	c.notifier.Publish(c.renderLocked(ctx))
}

// Render rebuilds the whole view from the loaded questions and the stored answers.
func (c *QuizClient) Render(ctx context.Context) model.QuizView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked(ctx)
}

func (c *QuizClient) renderLocked(ctx context.Context) model.QuizView {
	view := model.QuizView{
		Session:    c.session,
		Phase:      c.phase,
		Loaded:     c.phase != model.PhaseUnloaded,
		Cards:      make([]model.Card, 0, len(c.questions)),
		ReloadMode: string(c.opts.ReloadMode),
	}

	answers, err := c.loadAnswersLocked(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("session", c.session).Msg("Load answers for render")
		answers = model.AnswerMap{}
		if c.lastErr == nil {
			view.Error = describeError(err)
		}
	}

	for i, q := range c.questions {
		card := model.Card{
			Number:     i + 1,
			QuestionID: q.ID.Key(),
			Title:      fmt.Sprintf("%d. %s", i+1, q.Question),
			Options:    make([]model.OptionView, 0, len(q.Options)),
		}
		for oi, text := range q.Options {
			card.Options = append(card.Options, model.OptionView{
				Index:    oi,
				Text:     text,
				Selected: answers.IsSelected(q.ID, oi),
			})
		}
		view.Cards = append(view.Cards, card)
	}

	view.Progress = c.progress(answers)
	if view.Loaded {
		view.Status = view.Progress.Text()
	} else {
		view.Status = "Questions not loaded"
	}

	if c.result != nil {
		view.Result = model.NewResultView(*c.result, c.opts.PassPercent)
	}
	if c.lastErr != nil {
		view.Error = describeError(c.lastErr)
	}
	return view
}

// SelectOption records choice as the only selected option of the question.
func (c *QuizClient) SelectOption(ctx context.Context, questionID string, choice int) (model.Progress, error) {
	c.mu.Lock()

	progress, err := c.selectLocked(ctx, questionID, choice)
	if err != nil {
		c.lastErr = err
	} else {
		c.lastErr = nil
		c.phase = model.PhaseAnswering
	}
	c.publishLocked(ctx)
	c.mu.Unlock()

	return progress, err
}

func (c *QuizClient) selectLocked(ctx context.Context, questionID string, choice int) (model.Progress, error) {
	if c.phase == model.PhaseUnloaded {
		return model.Progress{}, ErrNotLoaded
	}
	pos, ok := c.positions[questionID]
	if !ok {
		return model.Progress{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if choice < 0 || choice >= len(c.questions[pos].Options) {
		return model.Progress{}, fmt.Errorf("%w: %d", ErrChoiceOutOfRange, choice)
	}

	answers, err := c.loadAnswersLocked(ctx)
	if err != nil {
		return model.Progress{}, err
	}
	answers[questionID] = choice
	if err := c.store.Save(ctx, c.session, answers); err != nil {
		return model.Progress{}, fmt.Errorf("save answers: %w", err)
	}

	c.log.Debug().
		Str("session", c.session).
		Str("question_id", questionID).
		Int("choice", choice).
		Msg("Option selected")

	return c.progress(answers), nil
}

// Progress reports answered/total from the stored answers.
func (c *QuizClient) Progress(ctx context.Context) (model.Progress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	answers, err := c.loadAnswersLocked(ctx)
	if err != nil {
		return model.Progress{}, err
	}
	return c.progress(answers), nil
}

// progress counts stored entries, as the stored map is the source of truth
// for what the user answered in this session.
func (c *QuizClient) progress(answers model.AnswerMap) model.Progress {
	return model.Progress{Answered: len(answers), Total: len(c.questions)}
}

// Submit posts one entry per loaded question and keeps the result for the
// view. Stored answers are kept so the user can submit again.
func (c *QuizClient) Submit(ctx context.Context) (model.ScoreResult, error) {
	c.mu.Lock()
	if c.phase == model.PhaseUnloaded {
		c.lastErr = ErrNotLoaded
		c.publishLocked(ctx)
		c.mu.Unlock()
		return model.ScoreResult{}, ErrNotLoaded
	}
	answers, err := c.loadAnswersLocked(ctx)
	if err != nil {
		c.lastErr = err
		c.publishLocked(ctx)
		c.mu.Unlock()
		return model.ScoreResult{}, err
	}
	session := c.session
	payload := model.BuildSubmission(session, c.questions, answers)
	c.mu.Unlock()

	result, err := c.api.Submit(ctx, payload)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
	} else if session == c.session {
		c.result = &result
		c.phase = model.PhaseSubmitted
		c.lastErr = nil
	}
	c.publishLocked(ctx)
	c.mu.Unlock()

	if err != nil {
		return model.ScoreResult{}, fmt.Errorf("submit answers: %w", err)
	}
	return result, nil
}

// Reload runs the reload control according to the configured mode.
func (c *QuizClient) Reload(ctx context.Context) (model.ReloadOutcome, error) {
	if c.opts.ReloadMode == config.ReloadRelaunch {
		c.log.Info().Msg("Reload requested, relaunch instructions shown")
		return model.ReloadOutcome{
			Mode:         string(config.ReloadRelaunch),
			Instructions: RelaunchInstructions,
		}, nil
	}

	outcome := model.ReloadOutcome{Mode: string(config.ReloadReset)}

	c.mu.Lock()
	if c.session != "" {
		if err := c.store.Clear(ctx, c.session); err != nil {
			c.lastErr = err
			c.publishLocked(ctx)
			c.mu.Unlock()
			return outcome, fmt.Errorf("clear answers: %w", err)
		}
		c.log.Info().Str("session", c.session).Msg("Stored answers cleared")
	}
	c.result = nil
	c.mu.Unlock()

	if err := c.api.ResetSession(); err != nil {
		err = fmt.Errorf("reset session: %w", err)
		c.mu.Lock()
		c.lastErr = err
		c.publishLocked(ctx)
		c.mu.Unlock()
		return outcome, err
	}

	if err := c.LoadQuestions(ctx); err != nil {
		return outcome, err
	}
	outcome.Reloaded = true
	return outcome, nil
}

func (c *QuizClient) loadAnswersLocked(ctx context.Context) (model.AnswerMap, error) {
	if c.session == "" {
		return model.AnswerMap{}, nil
	}
	answers, err := c.store.Load(ctx, c.session)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return answers, nil
}

// describeError turns an operation failure into text for the user.
func describeError(err error) string {
	var statusErr *api.StatusError
	switch {
	case errors.Is(err, api.ErrUnavailable):
		return "Could not reach the quiz server. Check the connection and try again."
	case errors.Is(err, api.ErrMalformedResponse):
		return "The quiz server sent a response that could not be read."
	case errors.As(err, &statusErr):
		return "The quiz server rejected the request: " + statusErr.Message
	case errors.Is(err, ErrNotLoaded):
		return "Questions are not loaded yet."
	case errors.Is(err, ErrUnknownQuestion), errors.Is(err, ErrChoiceOutOfRange):
		return "That option does not exist: " + err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled or timed out."
	default:
		return "Something went wrong: " + err.Error()
	}
}
