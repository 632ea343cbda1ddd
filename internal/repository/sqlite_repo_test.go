package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"persona-profiler/internal/db"
	"persona-profiler/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLiteAnswerUpsertKeepsSingleRow(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteAnswerRepository(newTestDB(t))
	now := time.Now().UTC()

	first, err := repo.Upsert(ctx, domain.Answer{
		ID: uuid.NewString(), SessionID: "s1", QuestionID: 3, Content: "first", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	later := now.Add(time.Second)
	second, err := repo.Upsert(ctx, domain.Answer{
		ID: uuid.NewString(), SessionID: "s1", QuestionID: 3, Content: "second", OwnerID: "u1", CreatedAt: later, UpdatedAt: later,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row id %s, got %s", first.ID, second.ID)
	}
	if second.Content != "second" || second.OwnerID != "u1" {
		t.Fatalf("expected overwritten content and owner, got %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at must not change on overwrite")
	}

	answers, err := repo.ListBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(answers) != 1 || answers[0].Content != "second" {
		t.Fatalf("expected exactly one stored answer with latest content, got %+v", answers)
	}
}

func TestSQLiteProfileUniquePerSession(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteProfileRepository(newTestDB(t))

	profile := domain.Profile{
		ID:        uuid.NewString(),
		SessionID: "abc",
		Analysis:  "narrative",
		StructuredData: domain.ProfileData{
			PersonalityTraits: []string{"a", "b", "c", "d", "e"},
			Summary:           "short",
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, profile); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := profile
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := repo.GetBySessionID(ctx, "abc")
	if err != nil {
		t.Fatalf("get by session: %v", err)
	}
	if got.ID != profile.ID || got.StructuredData.Summary != "short" || len(got.StructuredData.PersonalityTraits) != 5 {
		t.Fatalf("unexpected stored profile: %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteProfileConcurrentInsertsOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteProfileRepository(newTestDB(t))

	const callers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, domain.Profile{
				ID: uuid.NewString(), SessionID: "race", Analysis: "x", CreatedAt: time.Now().UTC(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrDuplicate):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || duplicates != callers-1 {
		t.Fatalf("expected 1 created and %d duplicates, got %d/%d", callers-1, created, duplicates)
	}
}

func TestSQLiteProfileListAndPlaceholder(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	repo := NewSQLiteProfileRepository(conn)
	base := time.Now().UTC()

	for i, owner := range []string{"u1", "u1", "u2"} {
		err := repo.Create(ctx, domain.Profile{
			ID:        uuid.NewString(),
			SessionID: uuid.NewString(),
			OwnerID:   owner,
			Analysis:  "n",
			StructuredData: domain.ProfileData{
				Summary: owner,
			},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	list, total, err := repo.List(ctx, ProfileFilter{OwnerID: "u1", Limit: 1, Offset: 0})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(list) != 1 {
		t.Fatalf("expected total 2 and 1 item, got %d/%d", total, len(list))
	}

	all, total, err := repo.List(ctx, ProfileFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 3 || len(all) != 3 || all[0].OwnerID != "u2" {
		t.Fatalf("expected newest first across owners, got total=%d %+v", total, all)
	}

	if _, err := conn.ExecContext(ctx, `UPDATE profiles SET structured_data = 'not json' WHERE owner_id = 'u2'`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}
	got, err := repo.GetByID(ctx, all[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StructuredData.Summary != "No summary yet" || got.StructuredData.PersonalityTraits == nil {
		t.Fatalf("expected placeholder structured data, got %+v", got.StructuredData)
	}
}

func TestSQLiteSessionTurnsAndTranscriptOrder(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	sessions := NewSQLiteSessionRepository(conn)
	messages := NewSQLiteMessageRepository(conn)

	if err := sessions.Create(ctx, domain.Session{ID: "s1", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := sessions.Create(ctx, domain.Session{ID: "s1", CreatedAt: time.Now().UTC()}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated session id, got %v", err)
	}

	for i := 1; i <= 3; i++ {
		turn, err := sessions.IncrementTurn(ctx, "s1")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if turn != i {
			t.Fatalf("expected turn %d, got %d", i, turn)
		}
	}
	if _, err := sessions.IncrementTurn(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	sameInstant := time.Now().UTC()
	for _, content := range []string{"q1", "a1", "q2"} {
		err := messages.Create(ctx, domain.Message{
			ID: uuid.NewString(), SessionID: "s1", Role: domain.RoleUser, Content: content, CreatedAt: sameInstant,
		})
		if err != nil {
			t.Fatalf("create message: %v", err)
		}
	}
	got, err := messages.ListBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 3 || got[0].Content != "q1" || got[2].Content != "q2" {
		t.Fatalf("expected insertion order, got %+v", got)
	}
}

func TestSQLiteQuestionSeedListAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteQuestionRepository(newTestDB(t))
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []domain.Question{
		{ID: 2, Category: "b", Content: "second", OrderNum: 2, IsRequired: false, CreatedAt: created},
		{ID: 1, Category: "a", Content: "first", OrderNum: 1, IsRequired: true, CreatedAt: created},
	}
	if err := repo.Seed(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// sembrar de nuevo no pisa ediciones ni duplica filas
	if _, err := repo.db.ExecContext(ctx, `UPDATE questions SET content = 'edited' WHERE id = 1`); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := repo.Seed(ctx, seed); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("expected questions ordered by order_num, got %+v", list)
	}
	if list[0].Content != "edited" || !list[0].IsRequired || list[1].IsRequired {
		t.Fatalf("unexpected stored questions %+v", list)
	}
	if !list[0].CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, list[0].CreatedAt)
	}

	got, err := repo.GetByID(ctx, 2)
	if err != nil || got.Content != "second" {
		t.Fatalf("get by id: %+v %v", got, err)
	}
	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
