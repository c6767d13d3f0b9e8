package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/crmlens/crmlens/internal/llm"
)

type scriptedBackend struct {
	name    string
	reply   string
	err     error
	calls   int
	lastReq llm.Request
}

func (b *scriptedBackend) Name() string { return b.name }

func (b *scriptedBackend) Complete(_ context.Context, req llm.Request) (string, error) {
	b.calls++
	b.lastReq = req
	if b.err != nil {
		return "", b.err
	}
	return b.reply, nil
}

func TestClassifyByKeywordsFilingOutranksNews(t *testing.T) {
	cases := []struct {
		question string
		want     Intent
		matched  bool
	}{
		{"show me the latest 10-K risk factors", Filing, true},
		{"annual report for Apple", Filing, true},
		{"recent news about Acme", News, true},
		{"any headlines today?", News, true},
		// Filing vocabulary wins even when news words are present.
		{"latest news on the sec filing", Filing, true},
		{"win rate by account executive", "", false},
		{"   ", "", false},
	}

	for _, tc := range cases {
		got, ok := ClassifyByKeywords(tc.question)
		if ok != tc.matched || got != tc.want {
			t.Errorf("ClassifyByKeywords(%q) = (%q, %v), want (%q, %v)", tc.question, got, ok, tc.want, tc.matched)
		}
	}
}

func TestClassifyKeywordMatchSkipsBackends(t *testing.T) {
	backend := &scriptedBackend{name: "ollama", reply: "news"}
	router := NewRouter([]llm.Backend{backend})

	got := router.Classify(context.Background(), "show sec filings for MSFT")
	if got != Filing {
		t.Fatalf("intent = %q", got)
	}
	if backend.calls != 0 {
		t.Fatalf("backend calls = %d", backend.calls)
	}
}

func TestClassifyEscalatesToModelTieBreak(t *testing.T) {
	backend := &scriptedBackend{name: "ollama", reply: " Database \n"}
	router := NewRouter([]llm.Backend{backend})

	got := router.Classify(context.Background(), "win rate by account executive")
	if got != Database {
		t.Fatalf("intent = %q", got)
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d", backend.calls)
	}
	if backend.lastReq.Temperature != 0 {
		t.Fatalf("temperature = %v", backend.lastReq.Temperature)
	}
}

func TestClassifyTriesNextBackendAfterFailure(t *testing.T) {
	first := &scriptedBackend{name: "ollama", err: errors.New("connection refused")}
	second := &scriptedBackend{name: "openai", reply: "filing"}
	router := NewRouter([]llm.Backend{first, second})

	got := router.Classify(context.Background(), "how is the quarter going")
	if got != Filing {
		t.Fatalf("intent = %q", got)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("calls = %d/%d", first.calls, second.calls)
	}
}

func TestClassifyDefaultsToDatabase(t *testing.T) {
	garbled := &scriptedBackend{name: "ollama", reply: "I think this is about the weather"}
	router := NewRouter([]llm.Backend{garbled})

	if got := router.Classify(context.Background(), "how is the quarter going"); got != Database {
		t.Fatalf("intent = %q", got)
	}

	empty := NewRouter(nil)
	if got := empty.Classify(context.Background(), "how is the quarter going"); got != Database {
		t.Fatalf("intent with no backends = %q", got)
	}
}

func TestParseAcceptsOnlyExactLabels(t *testing.T) {
	if got, ok := Parse("  NEWS  "); !ok || got != News {
		t.Fatalf("Parse NEWS = (%q, %v)", got, ok)
	}
	if _, ok := Parse("the intent is news"); ok {
		t.Fatal("sentence replies must not parse")
	}
	if _, ok := Parse(""); ok {
		t.Fatal("empty reply must not parse")
	}
}
