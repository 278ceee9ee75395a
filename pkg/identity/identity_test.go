package identity

import (
	"fmt"
	"sync"
	"testing"
)

func TestNextSequence(t *testing.T) {
	a := New()
	want := []string{"llm-1", "llm-2", "text-1", "llm-3"}
	got := []string{a.Next("llm"), a.Next("llm"), a.Next("text"), a.Next("llm")}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Next #%d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextStrictlyIncreasing(t *testing.T) {
	a := New()
	prev := 0
	for i := 0; i < 50; i++ {
		_, n, ok := Parse(a.Next("merge"))
		if !ok {
			t.Fatal("Parse() ok = false")
		}
		if n <= prev {
			t.Fatalf("suffix %d not greater than %d", n, prev)
		}
		prev = n
	}
}

func TestReset(t *testing.T) {
	a := New()
	a.Next("llm")
	a.Next("llm")
	a.Reset()
	if got := a.Next("llm"); got != "llm-1" {
		t.Errorf("Next after Reset = %s, want llm-1", got)
	}
}

func TestObserve(t *testing.T) {
	a := New()
	a.Observe("llm-7")
	a.Observe("llm-3")
	a.Observe("not an id")
	if got := a.Next("llm"); got != "llm-8" {
		t.Errorf("Next after Observe = %s, want llm-8", got)
	}
	if got := a.Peek("text"); got != 0 {
		t.Errorf("Peek(text) = %d, want 0", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		id   string
		kind string
		n    int
		ok   bool
	}{
		{"llm-1", "llm", 1, true},
		{"customInput-12", "customInput", 12, true},
		{"a-b-3", "a-b", 3, true},
		{"llm", "", 0, false},
		{"llm-", "", 0, false},
		{"-1", "", 0, false},
		{"llm-0", "", 0, false},
		{"llm-x", "", 0, false},
		{"llm-+4", "", 0, false},
	}

	for _, tt := range tests {
		kind, n, ok := Parse(tt.id)
		if kind != tt.kind || n != tt.n || ok != tt.ok {
			t.Errorf("Parse(%q) = (%q, %d, %v), want (%q, %d, %v)", tt.id, kind, n, ok, tt.kind, tt.n, tt.ok)
		}
	}
}

func TestNextConcurrent(t *testing.T) {
	a := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := a.Next("delay")
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 800 {
		t.Errorf("distinct ids = %d, want 800", len(seen))
	}
	if got := a.Next("delay"); got != fmt.Sprintf("delay-%d", 801) {
		t.Errorf("Next = %s, want delay-801", got)
	}
}
