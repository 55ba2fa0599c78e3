package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pigmentlabs/pigment/pkg/pubsub"
	"github.com/pigmentlabs/pigment/pkg/storage"
)

// countingBackend wraps a memory backend and counts writes.
type countingBackend struct {
	*storage.MemoryBackend
	mu    sync.Mutex
	saves int
}

func newCountingBackend() *countingBackend {
	return &countingBackend{MemoryBackend: storage.NewMemoryBackend()}
}

func (b *countingBackend) Save(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	b.saves++
	b.mu.Unlock()
	return b.MemoryBackend.Save(ctx, key, data)
}

func (b *countingBackend) saveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHydrationMergesStoredOverDefaults(t *testing.T) {
	backend := storage.NewMemoryBackend()
	if err := backend.Save(context.Background(), "pigment:prefs", []byte(`{"theme":"ochre"}`)); err != nil {
		t.Fatalf("seeding backend: %v", err)
	}

	s := New("pigment:prefs", State{"theme": "chalk", "columns": 3}, WithBackend(backend))
	defer s.Close()

	got := s.Get()
	if got["theme"] != "ochre" {
		t.Errorf("theme = %v, want ochre (stored wins)", got["theme"])
	}
	if got["columns"] != 3 {
		t.Errorf("columns = %v, want 3 (default preserved)", got["columns"])
	}
	if s.Key() != "pigment:prefs" {
		t.Errorf("Key() = %q, want pigment:prefs", s.Key())
	}
}

func TestHydrationAbsentKeepsDefaults(t *testing.T) {
	s := New("pigment:prefs", State{"theme": "chalk"}, WithBackend(storage.NewMemoryBackend()))
	defer s.Close()

	if got := s.Get()["theme"]; got != "chalk" {
		t.Errorf("theme = %v, want chalk", got)
	}
}

func TestHydrationCorruptBlobKeepsDefaults(t *testing.T) {
	backend := storage.NewMemoryBackend()
	if err := backend.Save(context.Background(), "pigment:prefs", []byte(`{not json`)); err != nil {
		t.Fatalf("seeding backend: %v", err)
	}

	s := New("pigment:prefs", State{"theme": "chalk"}, WithBackend(backend))
	defer s.Close()

	got := s.Get()
	if got["theme"] != "chalk" {
		t.Errorf("theme = %v, want chalk", got["theme"])
	}
	if len(got) != 1 {
		t.Errorf("state = %v, want defaults only", got)
	}
}

func TestSubscribeInvokesImmediately(t *testing.T) {
	s := New("pigment:prefs", State{"theme": "chalk"})
	defer s.Close()

	var calls []State
	off := s.Subscribe(func(state map[string]any) {
		calls = append(calls, state)
	})
	defer off()

	if len(calls) != 1 {
		t.Fatalf("got %d immediate calls, want 1", len(calls))
	}
	if calls[0]["theme"] != "chalk" {
		t.Errorf("immediate state = %v", calls[0])
	}
}

func TestNotifyRunsInRegistrationOrder(t *testing.T) {
	s := New("pigment:prefs", State{})
	defer s.Close()

	var order []string
	for _, tag := range []string{"first", "second", "third"} {
		tag := tag
		s.Subscribe(func(map[string]any) {
			order = append(order, tag)
		})
	}

	order = order[:0]
	s.Update(State{"theme": "ochre"})

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := New("pigment:prefs", State{})
	defer s.Close()

	calls := 0
	off := s.Subscribe(func(map[string]any) { calls++ })

	s.Update(State{"a": 1})
	off()
	off() // second call is a no-op
	s.Update(State{"a": 2})

	if calls != 2 { // immediate + first update
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestUpdateMergesShallow(t *testing.T) {
	s := New("pigment:prefs", State{"a": 1, "b": 2})
	defer s.Close()

	s.Update(State{"b": 3, "c": 4})

	got := s.Get()
	if got["a"] != 1 || got["b"] != 3 || got["c"] != 4 {
		t.Errorf("state = %v, want a:1 b:3 c:4", got)
	}
}

func TestUpdateFuncReplacesWholesale(t *testing.T) {
	s := New("pigment:prefs", State{"a": 1, "b": 2})
	defer s.Close()

	s.UpdateFunc(func(state State) State {
		if state["a"] != 1 {
			t.Errorf("updater saw %v, want current state", state)
		}
		return State{"only": "this"}
	})

	got := s.Get()
	if len(got) != 1 || got["only"] != "this" {
		t.Errorf("state = %v, want {only:this}", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New("pigment:prefs", State{"theme": "chalk"})
	defer s.Close()

	got := s.Get()
	got["theme"] = "mutated"

	if s.Get()["theme"] != "chalk" {
		t.Error("mutation of Get() result reached the store")
	}
}

func TestDebouncedPersistCoalesces(t *testing.T) {
	backend := newCountingBackend()
	s := New("pigment:prefs", State{}, WithBackend(backend), WithDebounce(20*time.Millisecond))
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.Update(State{"n": i})
	}

	waitFor(t, func() bool { return backend.saveCount() == 1 }, "debounced persist never fired")

	// The window closed once; no further writes should trickle in.
	time.Sleep(60 * time.Millisecond)
	if got := backend.saveCount(); got != 1 {
		t.Errorf("saveCount = %d, want 1", got)
	}

	data, err := backend.Load(context.Background(), "pigment:prefs")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"n":4}` {
		t.Errorf("persisted blob = %s, want last update", data)
	}
}

func TestFlushWritesImmediately(t *testing.T) {
	backend := newCountingBackend()
	s := New("pigment:prefs", State{}, WithBackend(backend), WithDebounce(10*time.Second))
	defer s.Close()

	s.Update(State{"theme": "ochre"})
	if got := backend.saveCount(); got != 0 {
		t.Fatalf("saveCount before flush = %d, want 0", got)
	}

	s.Flush()
	if got := backend.saveCount(); got != 1 {
		t.Errorf("saveCount after flush = %d, want 1", got)
	}
}

func TestCloseCancelsPendingPersist(t *testing.T) {
	backend := newCountingBackend()
	s := New("pigment:prefs", State{}, WithBackend(backend), WithDebounce(30*time.Millisecond))

	s.Update(State{"theme": "ochre"})
	s.Close()

	time.Sleep(80 * time.Millisecond)
	if got := backend.saveCount(); got != 0 {
		t.Errorf("saveCount = %d, want 0 (pending write cancelled)", got)
	}
}

func TestUpdateAfterCloseIsNoOp(t *testing.T) {
	backend := newCountingBackend()
	s := New("pigment:prefs", State{"theme": "chalk"}, WithBackend(backend))
	s.Close()
	s.Close() // idempotent

	s.Update(State{"theme": "ochre"})
	s.UpdateFunc(func(State) State { return State{} })

	if got := s.Get()["theme"]; got != "chalk" {
		t.Errorf("theme = %v, want chalk", got)
	}
	if got := backend.saveCount(); got != 0 {
		t.Errorf("saveCount = %d, want 0", got)
	}
}

func TestSyncReplacesPeerStateWithoutRepersisting(t *testing.T) {
	broker := pubsub.NewBroker()
	defer broker.Close()

	backendA := newCountingBackend()
	backendB := newCountingBackend()

	a := New("pigment:prefs", State{"theme": "chalk"},
		WithBackend(backendA), WithBroker(broker), WithDebounce(5*time.Millisecond))
	defer a.Close()
	b := New("pigment:prefs", State{"theme": "chalk"},
		WithBackend(backendB), WithBroker(broker), WithDebounce(5*time.Millisecond))
	defer b.Close()

	a.Update(State{"theme": "ochre"})

	waitFor(t, func() bool {
		return b.Get()["theme"] == "ochre"
	}, "peer store never received the sync message")

	// The receiving side applies without writing back.
	time.Sleep(30 * time.Millisecond)
	if got := backendB.saveCount(); got != 0 {
		t.Errorf("peer saveCount = %d, want 0", got)
	}
	if got := backendA.saveCount(); got != 1 {
		t.Errorf("writer saveCount = %d, want 1", got)
	}
}

func TestRemoteMessageReplacesWholesale(t *testing.T) {
	broker := pubsub.NewBroker()
	defer broker.Close()

	s := New("pigment:prefs", State{"theme": "chalk", "columns": 3}, WithBroker(broker))
	defer s.Close()

	peer := broker.Channel("pigment:prefs")
	defer peer.Close()

	// Malformed payloads are dropped.
	peer.Publish([]byte("not json"))
	time.Sleep(20 * time.Millisecond)
	if got := s.Get()["theme"]; got != "chalk" {
		t.Fatalf("theme = %v after malformed message, want chalk", got)
	}

	peer.Publish([]byte(`{"columns":5}`))
	waitFor(t, func() bool {
		got := s.Get()
		_, hasTheme := got["theme"]
		return !hasTheme && got["columns"] == float64(5)
	}, "remote state never replaced local state wholesale")
}

func TestDebouncerCollapsesCalls(t *testing.T) {
	var fired atomic.Int32
	var last atomic.Int32
	db := NewDebouncer(20*time.Millisecond, func(v int32) {
		fired.Add(1)
		last.Store(v)
	})

	db.Call(1)
	db.Call(2)
	db.Call(3)

	waitFor(t, func() bool { return fired.Load() == 1 }, "debouncer never fired")
	if got := last.Load(); got != 3 {
		t.Errorf("fired with %d, want 3 (last call wins)", got)
	}

	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	var fired atomic.Int32
	db := NewDebouncer(20*time.Millisecond, func(int) {
		fired.Add(1)
	})

	db.Call(1)
	db.Cancel()

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("fired %d times after cancel, want 0", got)
	}
}

func TestDebouncerFlush(t *testing.T) {
	var got atomic.Int32
	db := NewDebouncer(10*time.Second, func(v int32) {
		got.Store(v)
	})

	db.Flush() // nothing pending, nothing fires
	if got.Load() != 0 {
		t.Error("flush with nothing pending invoked fn")
	}

	db.Call(7)
	db.Flush()
	if got.Load() != 7 {
		t.Errorf("flush fired with %d, want 7", got.Load())
	}

	db.Flush() // pending consumed, second flush is a no-op
}

func TestDebounceWrapper(t *testing.T) {
	var fired atomic.Int32
	fn := Debounce(20*time.Millisecond, func() {
		fired.Add(1)
	})

	fn()
	fn()
	fn()

	waitFor(t, func() bool { return fired.Load() == 1 }, "debounced func never ran")
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("ran %d times, want 1", got)
	}
}
