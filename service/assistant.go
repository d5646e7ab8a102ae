package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/knowledge"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

// ErrNoQuery is returned for an empty chat query
var ErrNoQuery = errors.New("No query provided")

const systemPrompt = `You are a customs clearance assistant for traders moving goods between India, Nepal, China and Sri Lanka.
Answer questions about HS codes, import duty, VAT, required documents and clearance procedures.
Use the reference passages, the conversation history and any attached document. If you don't know the answer, say that you don't know.
Use at most five sentences and keep the answer concise.`

const analysisPrompt = `You are a customs clearance assistant. Explain what the document below means for clearing the goods:
which HS headings, duties and taxes apply and which supporting documents are still needed.
Use the reference passages where they are relevant and keep the explanation under eight sentences.`

// maxContextChars bounds the document text attached to a chat turn
const maxContextChars = 6000

// maxQueryChars bounds the document text used as a retrieval query
const maxQueryChars = 1000

// Retriever finds reference passages relevant to a query
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Passage, error)
}

// AssistantService answers /chat queries with per-user conversation memory
type AssistantService struct {
	gen        Generator
	documents  *DocumentStore
	retriever  Retriever
	translator *Translator
	source     string
	maxTurns   int
	topK       int

	mu      sync.Mutex
	history map[string][]Turn
}

// NewAssistantService creates the chat service. gen may be nil, in which case
// answers are built from the attached document's verification report and the
// retrieved passages. retriever may be nil.
func NewAssistantService(gen Generator, documents *DocumentStore, retriever Retriever, cfg *config.AssistantConfig) *AssistantService {
	s := &AssistantService{
		gen:       gen,
		documents: documents,
		retriever: retriever,
		source:    cfg.Source,
		maxTurns:  cfg.HistoryTurns,
		topK:      cfg.RetrieveK,
		history:   make(map[string][]Turn),
	}
	if gen != nil {
		s.translator = NewTranslator(gen)
	}
	return s
}

// Chat answers query for owner. A docID that does not resolve in the
// owner's scope is ignored. Hindi, Nepali and Maithili queries are answered
// in the same language.
func (s *AssistantService) Chat(ctx context.Context, owner, query, docID string) (model.ChatResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.ChatResponse{}, ErrNoQuery
	}

	var doc *model.StoredDocument
	if docID != "" {
		doc = s.documents.Get(owner, docID)
	}

	lang, english := s.translator.ToEnglish(ctx, query)
	passages := s.retrieve(ctx, english)

	if s.gen == nil {
		return model.ChatResponse{Answer: offlineAnswer(doc, passages), Source: s.source}, nil
	}

	system := systemPrompt + referenceContext(passages)
	if doc != nil {
		system += fmt.Sprintf("\n\nAttached document \"%s\" (%s):\n%s\n\nVerification report:\n%s",
			doc.Filename, doc.DocumentType, truncateRunes(doc.Text, maxContextChars), doc.Verification)
	}

	turns := append(s.History(owner), Turn{Role: RoleUser, Text: english})
	answer, err := s.gen.Generate(ctx, system, turns)
	if err != nil {
		return model.ChatResponse{}, fmt.Errorf("failed to answer query: %w", err)
	}

	s.remember(owner, Turn{Role: RoleUser, Text: english}, Turn{Role: RoleModel, Text: answer})
	return model.ChatResponse{Answer: s.translator.FromEnglish(ctx, answer, lang), Source: s.source}, nil
}

// Analyze explains an uploaded document against the reference library. The
// result is in English; an empty text yields an empty analysis.
func (s *AssistantService) Analyze(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	passages := s.retrieve(ctx, truncateRunes(text, maxQueryChars))

	if s.gen == nil {
		if len(passages) == 0 {
			return "", nil
		}
		return "Relevant customs guidance:\n" + summarize(passages), nil
	}

	prompt := "Document:\n" + truncateRunes(text, maxContextChars)
	answer, err := s.gen.Generate(ctx, analysisPrompt+referenceContext(passages), []Turn{{Role: RoleUser, Text: prompt}})
	if err != nil {
		return "", fmt.Errorf("failed to analyze document: %w", err)
	}
	return answer, nil
}

func (s *AssistantService) retrieve(ctx context.Context, query string) []knowledge.Passage {
	if s.retriever == nil || s.topK <= 0 {
		return nil
	}
	passages, err := s.retriever.Search(ctx, query, s.topK)
	if err != nil {
		slog.Warn("knowledge retrieval failed", "error", err)
		return nil
	}
	return passages
}

func referenceContext(passages []knowledge.Passage) string {
	if len(passages) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nReference passages:")
	for i, p := range passages {
		fmt.Fprintf(&b, "\n[%d] %s: %s\n%s", i+1, p.Source, p.Title, p.Text)
	}
	return b.String()
}

// summarize lists each passage with its first sentence
func summarize(passages []knowledge.Passage) string {
	var b strings.Builder
	for _, p := range passages {
		first := p.Text
		if i := strings.Index(first, ". "); i >= 0 {
			first = first[:i+1]
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.Title, p.Source, first)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// History returns a copy of owner's remembered turns
func (s *AssistantService) History(owner string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history[owner]...)
}

// Forget drops owner's conversation memory
func (s *AssistantService) Forget(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, owner)
}

func (s *AssistantService) remember(owner string, turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.history[owner], turns...)
	if limit := s.maxTurns * 2; limit > 0 && len(h) > limit {
		h = append([]Turn(nil), h[len(h)-limit:]...)
	}
	s.history[owner] = h
}

func offlineAnswer(doc *model.StoredDocument, passages []knowledge.Passage) string {
	if doc != nil {
		return fmt.Sprintf("Here is the verification summary for \"%s\":\n%s", doc.Filename, doc.Verification)
	}
	if len(passages) > 0 {
		return "From the customs reference library:\n" + summarize(passages)
	}
	return "The AI model is not configured on this server. Check the Trade Lane checklist for HS codes, " +
		"tax rates and required documents, or upload a document to have it verified."
}
