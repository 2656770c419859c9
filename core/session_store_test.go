package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestSession(id string) *Session {
	return &Session{
		ID:            id,
		City:          "苏州",
		DurationHours: 72,
		Budget:        5000,
		State: SessionState{
			Current:         POI{ID: "start", Name: "苏州站"},
			RemainingBudget: 5000,
			VisitedIDs:      make(map[string]bool),
			RegionVisits:    make(map[string]int),
		},
	}
}

func TestMemorySessionStore_PutGet(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	if err := store.Put(ctx, newTestSession("s1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.City != "苏州" {
		t.Errorf("Get() city = %q, want 苏州", got.City)
	}
}

func TestMemorySessionStore_GetMissing(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Put(ctx, newTestSession("s1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	// Jump past the TTL.
	store.now = func() time.Time { return now.Add(25 * time.Hour) }

	_, err := store.Get(ctx, "s1")
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Get() after TTL error = %v, want ErrSessionExpired", err)
	}

	// The expired entry was dropped, so a second lookup is a plain miss.
	_, err = store.Get(ctx, "s1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemorySessionStore_AccessRefreshesTTL(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	if err := store.Put(ctx, newTestSession("s1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	// Touch the session every 40 minutes; it must stay alive.
	for i := 1; i <= 3; i++ {
		store.now = func() time.Time { return now.Add(time.Duration(i) * 40 * time.Minute) }
		if _, err := store.Get(ctx, "s1"); err != nil {
			t.Fatalf("Get() at +%dx40m failed: %v", i, err)
		}
	}
}

func TestMemorySessionStore_GCExpired(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if err := store.Put(ctx, newTestSession(fmt.Sprintf("s%d", i))); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	store.now = func() time.Time { return now.Add(2 * time.Hour) }
	removed, err := store.GCExpired(ctx)
	if err != nil {
		t.Fatalf("GCExpired() failed: %v", err)
	}
	if removed != 5 {
		t.Errorf("GCExpired() removed = %d, want 5", removed)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after GC = %d, want 0", store.Len())
	}
}

func TestMemorySessionStore_Delete(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	if err := store.Put(ctx, newTestSession("s1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	// Idempotent.
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemorySessionStore_UpdateSerializesPerKey(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	if err := store.Put(ctx, newTestSession("s1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.Update(ctx, "s1", func(s *Session) error {
				s.State.ElapsedHours += 1
				s.State.VisitedIDs[fmt.Sprintf("poi-%d", n)] = true
				return nil
			})
			if err != nil {
				t.Errorf("Update() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.State.ElapsedHours != writers {
		t.Errorf("ElapsedHours = %v, want %d", got.State.ElapsedHours, writers)
	}
	if len(got.State.VisitedIDs) != writers {
		t.Errorf("VisitedIDs len = %d, want %d", len(got.State.VisitedIDs), writers)
	}
}

func TestMemorySessionStore_UpdateErrorDoesNotPersist(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	ctx := context.Background()

	if err := store.Put(ctx, newTestSession("s1")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	sentinel := errors.New("rejected")
	err := store.Update(ctx, "s1", func(s *Session) error {
		s.State.ElapsedHours = 5
		s.State.VisitedIDs["poi-x"] = true
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Update() error = %v, want sentinel", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.State.ElapsedHours != 0 || got.State.VisitedIDs["poi-x"] {
		t.Errorf("failed Update() persisted its changes: %+v", got.State)
	}
}

func TestSessionStateClone(t *testing.T) {
	state := SessionState{
		Current:         POI{ID: "a"},
		ElapsedHours:    3,
		RemainingBudget: 100,
		VisitedIDs:      map[string]bool{"a": true},
		RegionVisits:    map[string]int{"姑苏": 1},
	}

	clone := state.Clone()
	clone.VisitedIDs["b"] = true
	clone.RegionVisits["姑苏"]++

	if state.VisitedIDs["b"] {
		t.Error("Clone() shares VisitedIDs with the original")
	}
	if state.RegionVisits["姑苏"] != 1 {
		t.Error("Clone() shares RegionVisits with the original")
	}
}
