package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/knowledge"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

func newTestAssistant(gen Generator, turns int) (*AssistantService, *DocumentStore) {
	docs := newTestStore(100)
	cfg := &config.AssistantConfig{Source: "Customs Clearance AI", HistoryTurns: turns}
	return NewAssistantService(gen, docs, nil, cfg), docs
}

// scriptedGenerator answers each call through respond
type scriptedGenerator struct {
	respond func(system string, turns []Turn) (string, error)
	systems []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, system string, turns []Turn) (string, error) {
	g.systems = append(g.systems, system)
	return g.respond(system, turns)
}

type fakeRetriever struct {
	passages []knowledge.Passage
	err      error
	query    string
	k        int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, k int) ([]knowledge.Passage, error) {
	f.query, f.k = query, k
	return f.passages, f.err
}

var vatPassage = knowledge.Passage{
	ID: "nepal-import#3", Source: "Importing into Nepal", Title: "Taxes at import",
	Text: "Value Added Tax of 13% is charged on the duty-paid value. Some goods also carry excise duty.",
}

func TestChatEmptyQuery(t *testing.T) {
	svc, _ := newTestAssistant(&fakeGenerator{answer: "x"}, 10)
	if _, err := svc.Chat(context.Background(), "alice", "   ", ""); !errors.Is(err, ErrNoQuery) {
		t.Errorf("Expected ErrNoQuery, got %v", err)
	}
}

func TestChatRemembersHistoryPerOwner(t *testing.T) {
	gen := &fakeGenerator{answer: "Duty is 15%."}
	svc, _ := newTestAssistant(gen, 10)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, "alice", "What is the duty on laptops?", "")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Answer != "Duty is 15%." || resp.Source != "Customs Clearance AI" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	if _, err := svc.Chat(ctx, "alice", "And VAT?", ""); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(gen.turns) != 3 {
		t.Fatalf("Expected prior exchange plus new query, got %d turns", len(gen.turns))
	}
	if gen.turns[1].Role != RoleModel || gen.turns[2].Text != "And VAT?" {
		t.Errorf("Unexpected turns: %+v", gen.turns)
	}

	if _, err := svc.Chat(ctx, "bob", "Hello", ""); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(gen.turns) != 1 {
		t.Errorf("Expected bob to start without alice's history, got %d turns", len(gen.turns))
	}
}

func TestChatHistoryIsBounded(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	svc, _ := newTestAssistant(gen, 2)
	for i := 0; i < 5; i++ {
		if _, err := svc.Chat(context.Background(), "alice", "q", ""); err != nil {
			t.Fatalf("Chat failed: %v", err)
		}
	}
	if got := len(svc.History("alice")); got != 4 {
		t.Errorf("Expected 4 remembered turns, got %d", got)
	}
	svc.Forget("alice")
	if got := len(svc.History("alice")); got != 0 {
		t.Errorf("Expected history cleared, got %d", got)
	}
}

func TestChatAttachesOwnedDocument(t *testing.T) {
	gen := &fakeGenerator{answer: "It is an invoice."}
	svc, docs := newTestAssistant(gen, 10)
	docs.Save(&model.StoredDocument{
		ID: "d1", Owner: "alice", Filename: "invoice.pdf",
		Text: "HS Code 8471.30", DocumentType: "Commercial Invoice", Verification: "📋 Status: Verified",
	})

	if _, err := svc.Chat(context.Background(), "alice", "What is this?", "d1"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !strings.Contains(gen.system, "HS Code 8471.30") {
		t.Error("Expected document text in the system instruction")
	}

	if _, err := svc.Chat(context.Background(), "bob", "What is this?", "d1"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if strings.Contains(gen.system, "HS Code 8471.30") {
		t.Error("Expected another owner's document to be ignored")
	}
}

func TestChatGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	svc, _ := newTestAssistant(gen, 10)
	if _, err := svc.Chat(context.Background(), "alice", "hi", ""); err == nil {
		t.Fatal("Expected error")
	}
	if len(svc.History("alice")) != 0 {
		t.Error("Expected failed exchange not to be remembered")
	}
}

func TestChatOffline(t *testing.T) {
	svc, docs := newTestAssistant(nil, 10)
	docs.Save(&model.StoredDocument{ID: "d1", Owner: "guest", Filename: "invoice.pdf", Verification: "📋 Status: Verified"})

	resp, err := svc.Chat(context.Background(), "guest", "Is this fine?", "d1")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !strings.Contains(resp.Answer, "📋 Status: Verified") {
		t.Errorf("Expected verification summary, got %q", resp.Answer)
	}

	resp, _ = svc.Chat(context.Background(), "guest", "hello", "")
	if resp.Answer == "" || resp.Source != "Customs Clearance AI" {
		t.Errorf("Unexpected offline response: %+v", resp)
	}
}

func TestChatAddsRetrievedPassages(t *testing.T) {
	gen := &fakeGenerator{answer: "VAT is 13%."}
	retriever := &fakeRetriever{passages: []knowledge.Passage{vatPassage}}
	cfg := &config.AssistantConfig{Source: "Customs Clearance AI", HistoryTurns: 10, RetrieveK: 3}
	svc := NewAssistantService(gen, newTestStore(100), retriever, cfg)

	if _, err := svc.Chat(context.Background(), "alice", "What VAT applies in Nepal?", ""); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if retriever.query != "What VAT applies in Nepal?" || retriever.k != 3 {
		t.Errorf("Unexpected retrieval call: %q k=%d", retriever.query, retriever.k)
	}
	if !strings.Contains(gen.system, "[1] Importing into Nepal: Taxes at import") || !strings.Contains(gen.system, "13%") {
		t.Errorf("Expected passage in system instruction, got:\n%s", gen.system)
	}
}

func TestChatRetrievalFailureIsNotFatal(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	retriever := &fakeRetriever{err: errors.New("index closed")}
	cfg := &config.AssistantConfig{HistoryTurns: 10, RetrieveK: 3}
	svc := NewAssistantService(gen, newTestStore(100), retriever, cfg)

	if _, err := svc.Chat(context.Background(), "alice", "hi", ""); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if strings.Contains(gen.system, "Reference passages") {
		t.Error("Expected no reference block without passages")
	}
}

func TestChatOfflineUsesPassages(t *testing.T) {
	cfg := &config.AssistantConfig{Source: "Customs Clearance AI", RetrieveK: 2}
	svc := NewAssistantService(nil, newTestStore(100), &fakeRetriever{passages: []knowledge.Passage{vatPassage}}, cfg)

	resp, err := svc.Chat(context.Background(), "guest", "VAT in Nepal", "")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	want := "From the customs reference library:\n- Taxes at import (Importing into Nepal): Value Added Tax of 13% is charged on the duty-paid value."
	if resp.Answer != want {
		t.Errorf("Expected %q, got %q", want, resp.Answer)
	}
}

func TestChatTranslatesRegionalLanguages(t *testing.T) {
	gen := &scriptedGenerator{respond: func(system string, turns []Turn) (string, error) {
		prompt := turns[len(turns)-1].Text
		switch {
		case strings.HasPrefix(prompt, "Identify the language"):
			return "hi", nil
		case strings.HasPrefix(prompt, "Translate the text below from Hindi to English"):
			return "What is the duty on rice?", nil
		case strings.HasPrefix(prompt, "Translate the text below from English to Hindi"):
			return "चावल पर शुल्क 10% है।", nil
		case prompt == "What is the duty on rice?":
			return "Duty on rice is 10%.", nil
		}
		return "", errors.New("unexpected prompt: " + prompt)
	}}
	svc, _ := newTestAssistant(gen, 10)

	resp, err := svc.Chat(context.Background(), "alice", "चावल पर शुल्क क्या है?", "")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Answer != "चावल पर शुल्क 10% है।" {
		t.Errorf("Expected Hindi answer, got %q", resp.Answer)
	}
	history := svc.History("alice")
	if len(history) != 2 || history[0].Text != "What is the duty on rice?" || history[1].Text != "Duty on rice is 10%." {
		t.Errorf("Expected English history, got %+v", history)
	}
}

func TestChatLatinTextSkipsDetection(t *testing.T) {
	gen := &fakeGenerator{answer: "ok"}
	svc, _ := newTestAssistant(gen, 10)
	if _, err := svc.Chat(context.Background(), "alice", "Bonjour, quel est le droit?", ""); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("Expected only the answer call, got %d calls", gen.calls)
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	cfg := &config.AssistantConfig{RetrieveK: 3}

	offline := NewAssistantService(nil, newTestStore(100), &fakeRetriever{passages: []knowledge.Passage{vatPassage}}, cfg)
	got, err := offline.Analyze(ctx, completeInvoice)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !strings.HasPrefix(got, "Relevant customs guidance:\n- Taxes at import") {
		t.Errorf("Unexpected offline analysis: %q", got)
	}
	if got, _ := offline.Analyze(ctx, "   "); got != "" {
		t.Errorf("Expected no analysis for empty text, got %q", got)
	}

	gen := &fakeGenerator{answer: "Laptops fall under 8471."}
	retriever := &fakeRetriever{passages: []knowledge.Passage{vatPassage}}
	online := NewAssistantService(gen, newTestStore(100), retriever, cfg)
	got, err = online.Analyze(ctx, completeInvoice)
	if err != nil || got != "Laptops fall under 8471." {
		t.Fatalf("Unexpected analysis %q, %v", got, err)
	}
	if !strings.Contains(gen.system, "Taxes at import") || !strings.Contains(gen.turns[0].Text, "HS Code 8471.30") {
		t.Error("Expected passages and document text in the prompt")
	}
	if retriever.query != completeInvoice {
		t.Errorf("Expected document text as the retrieval query, got %q", retriever.query)
	}
	if len(online.History("guest")) != 0 {
		t.Error("Expected analysis not to touch chat history")
	}
}
