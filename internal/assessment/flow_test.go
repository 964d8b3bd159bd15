package assessment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mindmosaic-backend/internal/services"
)

func answerAll(t *testing.T, f *Flow) string {
	t.Helper()
	var prompt string
	for i, q := range Questions {
		if err := f.Select(q.Options[i%len(q.Options)]); err != nil {
			t.Fatalf("select %d: %v", q.ID, err)
		}
		p, submit, err := f.Next()
		if err != nil {
			t.Fatalf("next %d: %v", q.ID, err)
		}
		if submit != (i == len(Questions)-1) {
			t.Fatalf("question %d: unexpected submit=%v", q.ID, submit)
		}
		prompt = p
	}
	return prompt
}

func TestFlow_CompletedRunHasOneAnswerPerQuestion(t *testing.T) {
	f := NewFlow(Questions)
	answerAll(t, f)

	snap := f.Snapshot()
	if snap.State != string(StateSubmitting) {
		t.Fatalf("expected submitting, got %s", snap.State)
	}
	if len(snap.Answers) != len(Questions) {
		t.Fatalf("expected %d answers, got %d", len(Questions), len(snap.Answers))
	}

	known := map[int]bool{}
	for _, q := range Questions {
		known[q.ID] = true
	}
	seen := map[int]bool{}
	for _, a := range snap.Answers {
		if !known[a.QuestionID] {
			t.Errorf("answer for unknown question %d", a.QuestionID)
		}
		if seen[a.QuestionID] {
			t.Errorf("duplicate answer for question %d", a.QuestionID)
		}
		seen[a.QuestionID] = true
	}
	if snap.Quote == "" {
		t.Error("expected a quote while submitting")
	}
}

func TestFlow_NextRequiresSelection(t *testing.T) {
	f := NewFlow(Questions)

	if _, _, err := f.Next(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if snap := f.Snapshot(); snap.CanAdvance || snap.Index != 0 || len(snap.Answers) != 0 {
		t.Fatalf("flow advanced without a selection: %+v", snap)
	}
}

func TestFlow_SelectRejectsUnknownOption(t *testing.T) {
	f := NewFlow(Questions)
	if err := f.Select("Sometimes maybe"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestFlow_PromptContainsEveryAnswer(t *testing.T) {
	f := NewFlow(Questions)
	prompt := answerAll(t, f)

	for _, a := range f.Snapshot().Answers {
		var text string
		for _, q := range Questions {
			if q.ID == a.QuestionID {
				text = q.Text
			}
		}
		if !strings.Contains(prompt, text+": "+a.Answer) {
			t.Errorf("prompt missing %q", text+": "+a.Answer)
		}
	}
	if !strings.Contains(prompt, "exactly 6") {
		t.Error("prompt missing formatting instructions")
	}
}

func TestFlow_RunCompletesWithSuggestions(t *testing.T) {
	f := NewFlow(Questions)
	answerAll(t, f)

	var calls int
	gen := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "1. Walk daily\n2. Sleep early\n3. Call a friend", nil
	})

	if err := f.Run(context.Background(), gen); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one generative call, got %d", calls)
	}

	snap := f.Snapshot()
	if snap.State != string(StateCompleted) {
		t.Fatalf("expected completed, got %s", snap.State)
	}
	if len(snap.Suggestions) != 3 || snap.Suggestions[0] != "Walk daily" {
		t.Fatalf("unexpected suggestions: %v", snap.Suggestions)
	}

	if err := f.Run(context.Background(), gen); !errors.Is(err, ErrNotSubmitting) {
		t.Fatalf("expected second run to be rejected, got %v", err)
	}
}

func TestFlow_RunFailureIsVisible(t *testing.T) {
	f := NewFlow(Questions)
	answerAll(t, f)

	gen := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("boom")
	})
	f.Run(context.Background(), gen)

	snap := f.Snapshot()
	if snap.Error == "" || len(snap.Suggestions) != 0 {
		t.Fatalf("expected error state, got %+v", snap)
	}
}

func TestFlow_Retake(t *testing.T) {
	f := NewFlow(Questions)
	answerAll(t, f)
	f.Complete("1. a", nil)

	f.Retake()

	snap := f.Snapshot()
	if snap.State != string(StateAnswering) || snap.Index != 0 || len(snap.Answers) != 0 {
		t.Fatalf("expected fresh flow, got %+v", snap)
	}
	if snap.Question == nil || snap.Question.ID != Questions[0].ID {
		t.Fatalf("expected first question, got %+v", snap.Question)
	}
}

func TestFlow_RetakeDropsLateReplyFromEarlierRun(t *testing.T) {
	f := NewFlow(Questions)
	answerAll(t, f)

	entered := make(chan struct{})
	release := make(chan struct{})
	slow := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		close(entered)
		<-release
		return "1. stale advice", nil
	})

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background(), slow) }()
	<-entered

	f.Retake()
	last := Questions[0].Options[len(Questions[0].Options)-1]
	for _, q := range Questions {
		if err := f.Select(q.Options[len(q.Options)-1]); err != nil {
			t.Fatalf("select %d: %v", q.ID, err)
		}
		if _, _, err := f.Next(); err != nil {
			t.Fatalf("next %d: %v", q.ID, err)
		}
	}

	close(release)
	if err := <-done; !errors.Is(err, ErrNotSubmitting) {
		t.Fatalf("expected late reply to be rejected, got %v", err)
	}

	snap := f.Snapshot()
	if snap.State != string(StateSubmitting) {
		t.Fatalf("second run must still be waiting, got %s", snap.State)
	}
	if snap.Answers[0].Answer != last {
		t.Fatalf("expected second run's answers, got %+v", snap.Answers[0])
	}

	fresh := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "1. fresh advice", nil
	})
	if err := f.Run(context.Background(), fresh); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := f.Snapshot().Suggestions; len(got) != 1 || got[0] != "fresh advice" {
		t.Fatalf("unexpected suggestions: %v", got)
	}
}
