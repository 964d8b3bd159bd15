// Package assessment runs the wellness questionnaire: one answer per question,
// then a single generative call that turns the answers into suggestions.
package assessment

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/services"
)

type State string

const (
	StateAnswering  State = "answering"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
)

var (
	ErrNoSelection   = errors.New("select an option before continuing")
	ErrInvalidOption = errors.New("option is not offered for this question")
	ErrNotAnswering  = errors.New("assessment is not accepting answers")
	ErrNotSubmitting = errors.New("assessment is not waiting for suggestions")
)

// Flow is one visitor's pass through the questionnaire. It is safe for
// concurrent use.
type Flow struct {
	mu        sync.Mutex
	questions []models.Question
	state     State
	index     int
	selected  string
	answers   []models.Answer
	quote     string
	response  string
	err       error
	run       int
	pickQuote func() string
}

func NewFlow(questions []models.Question) *Flow {
	return &Flow{
		questions: questions,
		state:     StateAnswering,
		answers:   make([]models.Answer, 0, len(questions)),
		pickQuote: func() string { return Quotes[rand.Intn(len(Quotes))] },
	}
}

// Select records the option chosen for the current question. Choosing again
// replaces the previous choice.
func (f *Flow) Select(option string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateAnswering {
		return ErrNotAnswering
	}
	for _, o := range f.questions[f.index].Options {
		if o == option {
			f.selected = option
			return nil
		}
	}
	return ErrInvalidOption
}

// Next commits the selected option. On the last question the flow moves to
// submitting and the returned prompt must be sent exactly once.
func (f *Flow) Next() (prompt string, submit bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateAnswering {
		return "", false, ErrNotAnswering
	}
	if f.selected == "" {
		return "", false, ErrNoSelection
	}

	f.answers = append(f.answers, models.Answer{
		QuestionID: f.questions[f.index].ID,
		Answer:     f.selected,
	})
	f.selected = ""

	if f.index < len(f.questions)-1 {
		f.index++
		return "", false, nil
	}

	f.state = StateSubmitting
	f.quote = f.pickQuote()
	return BuildPrompt(f.questions, f.answers), true, nil
}

// Complete moves a submitting flow to completed with the reply or the error.
func (f *Flow) Complete(text string, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.complete(f.run, text, err)
}

// complete applies a reply only to the run that asked for it. A retake in
// between bumps f.run and the late reply is dropped.
func (f *Flow) complete(run int, text string, err error) error {
	if f.state != StateSubmitting || run != f.run {
		return ErrNotSubmitting
	}
	f.state = StateCompleted
	f.response = text
	f.err = err
	return nil
}

// Run performs the generative call for a submitting flow.
func (f *Flow) Run(ctx context.Context, gen services.Generator) error {
	f.mu.Lock()
	if f.state != StateSubmitting {
		f.mu.Unlock()
		return ErrNotSubmitting
	}
	prompt := BuildPrompt(f.questions, f.answers)
	run := f.run
	f.mu.Unlock()

	text, err := gen.Generate(ctx, prompt)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.complete(run, text, err)
}

// Retake starts over with no answers.
func (f *Flow) Retake() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.run++
	f.state = StateAnswering
	f.index = 0
	f.selected = ""
	f.answers = make([]models.Answer, 0, len(f.questions))
	f.quote = ""
	f.response = ""
	f.err = nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Snapshot() models.AssessmentSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := models.AssessmentSnapshot{
		State:   string(f.state),
		Index:   f.index,
		Total:   len(f.questions),
		Answers: append([]models.Answer(nil), f.answers...),
	}

	switch f.state {
	case StateAnswering:
		q := f.questions[f.index]
		snap.Question = &q
		snap.Selected = f.selected
		snap.CanAdvance = f.selected != ""
	case StateSubmitting:
		snap.Quote = f.quote
	case StateCompleted:
		if f.err != nil {
			snap.Error = "Error fetching data"
		} else {
			snap.Response = f.response
			snap.Suggestions = ParseSuggestions(f.response)
		}
	}
	return snap
}
