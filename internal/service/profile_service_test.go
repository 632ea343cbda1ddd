package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"persona-profiler/internal/db"
	"persona-profiler/internal/domain"
	"persona-profiler/internal/llm"
	"persona-profiler/internal/repository"
)

func eightAnswers() []domain.QuestionAnswer {
	out := make([]domain.QuestionAnswer, 0, 8)
	for i := 1; i <= 8; i++ {
		out = append(out, domain.QuestionAnswer{
			QuestionID: int64(i),
			Question:   fmt.Sprintf("Question %d?", i),
			Answer:     fmt.Sprintf("Answer %d.", i),
		})
	}
	return out
}

func TestProfileServiceGenerateIsIdempotent(t *testing.T) {
	repo := newMemProfileRepo()
	provider := &countingProvider{inner: llm.NewMockClient()}
	svc := NewProfileService(repo, provider, nil, nil)
	ctx := context.Background()

	first, err := svc.Generate(ctx, GenerateInput{SessionID: "s1", Answers: eightAnswers()})
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := svc.Generate(ctx, GenerateInput{SessionID: " s1 ", Answers: eightAnswers()})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same profile, got %s and %s", first.ID, second.ID)
	}
	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("expected one provider call, got %d", got)
	}
}

func TestProfileServiceSendsAnalyzerAndReportPrompt(t *testing.T) {
	provider := &countingProvider{response: "no block"}
	svc := NewProfileService(newMemProfileRepo(), provider, nil, nil)

	p, err := svc.Generate(context.Background(), GenerateInput{SessionID: "s1", OwnerID: "u1", Answers: eightAnswers()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(provider.lastSent) != 2 || provider.lastSent[0].Role != llm.RoleSystem || provider.lastSent[0].Content != SystemPromptAnalyzer {
		t.Fatalf("unexpected provider messages %+v", provider.lastSent)
	}
	want := PromptBuilder{}.BuildReportPrompt(TranscriptFromAnswers(eightAnswers()))
	if provider.lastSent[1].Content != want {
		t.Fatalf("report prompt mismatch")
	}
	if p.Analysis != "no block" || p.OwnerID != "u1" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.StructuredData.Summary != domain.DefaultProfileData().Summary {
		t.Fatalf("expected default structured data on degraded output")
	}
	if svc.DegradedExtractions() != 1 {
		t.Fatalf("expected degraded extraction to be counted")
	}
}

func TestProfileServiceConcurrentCallersShareOneProfile(t *testing.T) {
	repo := newMemProfileRepo()
	provider := &countingProvider{inner: llm.NewMockClient(), delay: 20 * time.Millisecond}
	svc := NewProfileService(repo, provider, nil, nil)

	const n = 25
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.Generate(context.Background(), GenerateInput{SessionID: "race", Answers: eightAnswers()})
			ids[i], errs[i] = p.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("caller %d observed a different profile", i)
		}
	}
	if repo.count() != 1 {
		t.Fatalf("expected exactly one stored profile, got %d", repo.count())
	}
}

func TestProfileServiceDuplicateInsertServesWinner(t *testing.T) {
	// dos instancias simulan dos procesos que comparten el store
	repo := newMemProfileRepo()
	provider := &countingProvider{inner: llm.NewMockClient(), delay: 20 * time.Millisecond}
	a := NewProfileService(repo, provider, nil, nil)
	b := NewProfileService(repo, provider, nil, nil)

	var wg sync.WaitGroup
	results := make([]domain.Profile, 2)
	errs := make([]error, 2)
	for i, svc := range []*ProfileService{a, b} {
		wg.Add(1)
		go func(i int, svc *ProfileService) {
			defer wg.Done()
			results[i], errs[i] = svc.Generate(context.Background(), GenerateInput{SessionID: "shared", Answers: eightAnswers()})
		}(i, svc)
	}
	wg.Wait()

	if errs[0] != nil || errs[1] != nil {
		t.Fatalf("unexpected errors: %v, %v", errs[0], errs[1])
	}
	if results[0].ID != results[1].ID {
		t.Fatalf("both callers must observe the stored profile")
	}
	if repo.count() != 1 {
		t.Fatalf("expected one stored profile, got %d", repo.count())
	}
}

func TestProfileServiceValidation(t *testing.T) {
	provider := &countingProvider{response: "x"}
	svc := NewProfileService(newMemProfileRepo(), provider, nil, nil)

	cases := []GenerateInput{
		{SessionID: "", Answers: eightAnswers()},
		{SessionID: "s1"},
		{SessionID: "s1", Answers: []domain.QuestionAnswer{{QuestionID: 1, Question: "q", Answer: "  "}}},
	}
	for i, in := range cases {
		_, err := svc.Generate(context.Background(), in)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) || len(verr.Fields) == 0 {
			t.Fatalf("case %d: expected field detail", i)
		}
	}
	if provider.calls.Load() != 0 {
		t.Fatalf("provider must not be called on invalid input")
	}
}

func TestProfileServiceProviderFailureStoresNothing(t *testing.T) {
	repo := newMemProfileRepo()
	svc := NewProfileService(repo, &countingProvider{err: fmt.Errorf("%w: status=500", llm.ErrProviderUnavailable)}, nil, nil)

	_, err := svc.Generate(context.Background(), GenerateInput{SessionID: "s1", Answers: eightAnswers()})
	if !errors.Is(err, llm.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if repo.count() != 0 {
		t.Fatalf("nothing should be stored on provider failure")
	}
}

func TestProfileServiceLeaderCancelDoesNotFailFollowers(t *testing.T) {
	repo := newMemProfileRepo()
	provider := &countingProvider{response: llm.MockReport(), release: make(chan struct{})}
	svc := NewProfileService(repo, provider, nil, nil)
	in := GenerateInput{SessionID: "s1", Answers: eightAnswers()}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Generate(leaderCtx, in)
		leaderErr <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for provider.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("provider was never called")
		}
		time.Sleep(time.Millisecond)
	}

	type result struct {
		profile domain.Profile
		err     error
	}
	follower := make(chan result, 1)
	go func() {
		p, err := svc.Generate(context.Background(), in)
		follower <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected leader to see context.Canceled, got %v", err)
	}

	close(provider.release)
	res := <-follower
	if res.err != nil {
		t.Fatalf("follower should get the profile, got %v", res.err)
	}
	if res.profile.ID == "" || res.profile.SessionID != "s1" {
		t.Fatalf("unexpected follower profile: %+v", res.profile)
	}
	if repo.count() != 1 {
		t.Fatalf("expected 1 stored profile, got %d", repo.count())
	}
	if provider.calls.Load() != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.calls.Load())
	}
}

func TestProfileServiceGenerationTimeoutBoundsFlight(t *testing.T) {
	repo := newMemProfileRepo()
	provider := &countingProvider{response: llm.MockReport(), release: make(chan struct{})}
	svc := NewProfileService(repo, provider, nil, nil)
	svc.SetGenerationTimeout(30 * time.Millisecond)

	_, err := svc.Generate(context.Background(), GenerateInput{SessionID: "s1", Answers: eightAnswers()})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if repo.count() != 0 {
		t.Fatalf("nothing should be stored after a timeout")
	}
}

func TestProfileServiceListAndRecent(t *testing.T) {
	repo := newMemProfileRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		owner := "u1"
		if i%3 == 0 {
			owner = "u2"
		}
		repo.Create(context.Background(), domain.Profile{
			ID:        fmt.Sprintf("p%02d", i),
			SessionID: fmt.Sprintf("s%02d", i),
			OwnerID:   owner,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	svc := NewProfileService(repo, &countingProvider{}, nil, nil)
	ctx := context.Background()

	page, err := svc.List(ctx, 0, 0, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 1 || page.PageSize != 10 || page.Total != 12 || len(page.List) != 10 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.List[0].ID != "p11" {
		t.Fatalf("expected newest first, got %s", page.List[0].ID)
	}

	page2, _ := svc.List(ctx, 2, 10, "")
	if len(page2.List) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(page2.List))
	}

	owned, _ := svc.List(ctx, 1, 500, "u2")
	if owned.PageSize != 100 || owned.Total != 4 {
		t.Fatalf("unexpected owner page %+v", owned)
	}

	recent, err := svc.Recent(ctx, 0, "")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected default recent limit 5, got %d", len(recent))
	}
}

func TestProfileServiceGet(t *testing.T) {
	repo := newMemProfileRepo()
	repo.Create(context.Background(), domain.Profile{ID: "p1", SessionID: "s1"})
	svc := NewProfileService(repo, &countingProvider{}, nil, nil)

	if _, err := svc.Get(context.Background(), " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if p, err := svc.Get(context.Background(), "p1"); err != nil || p.SessionID != "s1" {
		t.Fatalf("unexpected result %+v, %v", p, err)
	}
}

func TestEndToEndSessionABC(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer conn.Close()

	profileRepo := repository.NewSQLiteProfileRepository(conn)
	answers := NewAnswerService(repository.NewSQLiteAnswerRepository(conn), profileRepo, nil)
	provider := &countingProvider{inner: llm.NewMockClient()}
	profiles := NewProfileService(profileRepo, provider, nil, nil)

	qa := eightAnswers()
	for _, a := range qa {
		if _, err := answers.SaveAnswer(ctx, SaveAnswerInput{SessionID: "abc", QuestionID: a.QuestionID, Content: a.Answer}); err != nil {
			t.Fatalf("save answer %d: %v", a.QuestionID, err)
		}
	}
	stored, err := answers.List(ctx, "abc")
	if err != nil || len(stored) != 8 {
		t.Fatalf("expected 8 stored answers, got %d (%v)", len(stored), err)
	}

	first, err := profiles.Generate(ctx, GenerateInput{SessionID: "abc", Answers: qa})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.StructuredData.Summary == "" {
		t.Fatalf("expected non-empty summary")
	}
	if len(first.StructuredData.PersonalityTraits) != 5 {
		t.Fatalf("expected 5 traits, got %d", len(first.StructuredData.PersonalityTraits))
	}

	second, err := profiles.Generate(ctx, GenerateInput{SessionID: "abc", Answers: qa})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected identical profile identity")
	}
	if provider.calls.Load() != 1 {
		t.Fatalf("expected a single provider call, got %d", provider.calls.Load())
	}

	if _, err := answers.SaveAnswer(ctx, SaveAnswerInput{SessionID: "abc", QuestionID: 9, Content: "late"}); !errors.Is(err, ErrTranscriptFrozen) {
		t.Fatalf("expected ErrTranscriptFrozen after profile, got %v", err)
	}
}
