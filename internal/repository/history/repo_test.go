package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/conversation"
)

func TestLoad_UnknownSession(t *testing.T) {
	r, _ := newTestRepo(t, Config{})
	turns, err := r.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected no turns, got %d", len(turns))
	}
}

func TestAppend_RoundTrip(t *testing.T) {
	r, ms := newTestRepo(t, Config{KeyPrefix: "sp:", TTL: time.Hour})
	ctx := context.Background()

	if err := r.Append(ctx, "s1", conversation.User("hi"), conversation.Model("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Append(ctx, "s1", conversation.User("again"), conversation.Model("sure")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := ms.data["sp:history:s1"]; !ok {
		t.Fatalf("expected key sp:history:s1, got %v", ms.data)
	}
	if ms.ttls["sp:history:s1"] != time.Hour {
		t.Errorf("ttl = %v, want 1h", ms.ttls["sp:history:s1"])
	}

	turns, err := r.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"hi", "hello", "again", "sure"}
	if len(turns) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(turns))
	}
	for i, w := range want {
		if turns[i].Text() != w {
			t.Errorf("turn %d = %q, want %q", i, turns[i].Text(), w)
		}
	}
	if turns[0].Role() != conversation.RoleUser || turns[1].Role() != conversation.RoleModel {
		t.Errorf("unexpected roles: %s, %s", turns[0].Role(), turns[1].Role())
	}
}

func TestAppend_SessionsAreIsolated(t *testing.T) {
	r, _ := newTestRepo(t, Config{})
	ctx := context.Background()

	_ = r.Append(ctx, "a", conversation.User("from a"), conversation.Model("ok"))

	turns, err := r.Load(ctx, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("session b sees %d turns from session a", len(turns))
	}
}

func TestAppend_TrimsToWindow(t *testing.T) {
	r, _ := newTestRepo(t, Config{MaxTurns: 4})
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3"} {
		if err := r.Append(ctx, "s", conversation.User(q), conversation.Model("a"+q[1:])); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	turns, _ := r.Load(ctx, "s")
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	if turns[0].Text() != "q2" {
		t.Errorf("oldest kept turn = %q, want q2", turns[0].Text())
	}
}

func TestAppend_NoTurnsIsNoop(t *testing.T) {
	r, ms := newTestRepo(t, Config{})
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		t.Fatal("store must not be written")
		return nil
	}
	if err := r.Append(context.Background(), "s"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_StoreError(t *testing.T) {
	r, ms := newTestRepo(t, Config{})
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	if _, err := r.Load(context.Background(), "s"); !errors.Is(err, domain.ErrSessionStore) {
		t.Errorf("expected ErrSessionStore, got %v", err)
	}
}

func TestLoad_CorruptPayload(t *testing.T) {
	r, ms := newTestRepo(t, Config{})
	ms.data["history:s"] = []byte("not json")
	if _, err := r.Load(context.Background(), "s"); !errors.Is(err, domain.ErrSessionStore) {
		t.Errorf("expected ErrSessionStore, got %v", err)
	}
}

func TestLoad_UnknownRole(t *testing.T) {
	r, ms := newTestRepo(t, Config{})
	ms.data["history:s"] = []byte(`[{"role":"system","text":"x"}]`)
	if _, err := r.Load(context.Background(), "s"); !errors.Is(err, domain.ErrSessionStore) {
		t.Errorf("expected ErrSessionStore, got %v", err)
	}
}

func TestAppend_SaveError(t *testing.T) {
	r, ms := newTestRepo(t, Config{})
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		return errors.New("readonly")
	}
	err := r.Append(context.Background(), "s", conversation.User("x"))
	if !errors.Is(err, domain.ErrSessionStore) {
		t.Errorf("expected ErrSessionStore, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	r, ms := newTestRepo(t, Config{})
	ctx := context.Background()

	_ = r.Append(ctx, "s", conversation.User("x"), conversation.Model("y"))
	if err := r.Delete(ctx, "s"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.data) != 0 {
		t.Errorf("expected store empty, got %v", ms.data)
	}

	ms.delFn = func(context.Context, string) error { return errors.New("boom") }
	if err := r.Delete(ctx, "s"); !errors.Is(err, domain.ErrSessionStore) {
		t.Errorf("expected ErrSessionStore, got %v", err)
	}
}
