// Package assistant is the chat page: a persisted transcript of questions and
// answers, with optional document upload before a question.
package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/localstore"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

var ErrBusy = errors.New("a message is already being sent")

// Transcript text and sources
const (
	DefaultFileQuery = "Analyze this document"
	FollowUpQuestion = "What would you like to know about this document?"
	NoResponse       = "No response from AI."
	ChatFailed       = "Error connecting to chatbot backend."

	VerifiedBanner   = "**Document Verification for Customs Clearance:** ✅ The document has been verified and appears compliant for customs clearance."
	UnverifiedBanner = "**Document Verification for Customs Clearance:** ❌ The document could not be verified for customs clearance. Please review and resubmit if necessary."

	SourceUpload  = "Upload System"
	SourceSystem  = "System"
	SourceChatbot = "Chatbot Engine"
)

// Backend is the remote upload and chat service
type Backend interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (model.UploadResult, error)
	Chat(ctx context.Context, query, docID string) (model.ChatResponse, error)
	ClearChat(ctx context.Context) error
}

// HistoryStore persists the transcript between runs
type HistoryStore interface {
	Get(key string, out any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
}

// Attachment is a file sent along with a message
type Attachment struct {
	Name      string
	MediaType string
	Content   []byte
}

type Page struct {
	backend Backend
	store   HistoryStore
	key     string

	mu       sync.Mutex
	busy     bool
	messages []model.ChatMessage
}

// NewPage loads the transcript saved for uid ("" for guests)
func NewPage(backend Backend, store HistoryStore, uid string) *Page {
	p := &Page{backend: backend, store: store, key: localstore.ChatHistoryKey(uid)}
	var saved []model.ChatMessage
	if ok, err := store.Get(p.key, &saved); err != nil {
		slog.Warn("failed to load chat history", "key", p.key, "error", err)
	} else if ok {
		p.messages = saved
	}
	return p
}

func (p *Page) Messages() []model.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ChatMessage(nil), p.messages...)
}

// Busy is true while a send is outstanding
func (p *Page) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Clear wipes the transcript and its saved copy, then asks the backend to
// forget the conversation. The local copy is gone even if the backend fails.
func (p *Page) Clear(ctx context.Context) error {
	p.mu.Lock()
	p.messages = nil
	err := p.store.Delete(p.key)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if err := p.backend.ClearChat(ctx); err != nil {
		return fmt.Errorf("failed to clear server history: %w", err)
	}
	return nil
}

// Send appends the user's message, uploads file if given, then asks the
// chat endpoint. Backend failures end up in the transcript and are also
// returned.
func (p *Page) Send(ctx context.Context, text string, file *Attachment) error {
	text = strings.TrimSpace(text)
	if text == "" && file == nil {
		return nil
	}

	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return ErrBusy
	}
	p.busy = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	query := text
	if query == "" {
		query = DefaultFileQuery
	}
	userMsg := model.ChatMessage{Type: model.MessageUser, Text: query}
	if file != nil {
		userMsg.FileName = file.Name
	}
	p.append(userMsg)

	var (
		docID    string
		verified bool
	)
	if file != nil {
		at := p.append(model.ChatMessage{Type: model.MessageAI, Text: fmt.Sprintf("Uploading %s...", file.Name), Source: SourceUpload})

		res, err := p.backend.Upload(ctx, file.Name, file.MediaType, bytes.NewReader(file.Content))
		if err != nil {
			slog.Error("chat upload failed", "name", file.Name, "error", err)
			p.replace(at, model.ChatMessage{
				Type:   model.MessageAI,
				Text:   fmt.Sprintf("❌ Error uploading document: %s. Please try again.", file.Name),
				Source: SourceSystem,
			})
			return err
		}
		docID, verified = res.DocID, res.Verified
		p.replace(at, model.ChatMessage{Type: model.MessageAI, Text: UploadedText(file.Name, verified), Source: SourceUpload})

		if text == "" {
			p.append(model.ChatMessage{Type: model.MessageAI, Text: FollowUpQuestion, Source: SourceUpload})
			return nil
		}
	}

	resp, err := p.backend.Chat(ctx, query, docID)
	if err != nil {
		slog.Error("chat request failed", "error", err)
		p.append(model.ChatMessage{Type: model.MessageAI, Text: ChatFailed, Source: SourceSystem})
		return err
	}

	answer := resp.Answer
	if answer == "" {
		answer = NoResponse
	}
	source := resp.Source
	if source == "" {
		source = SourceChatbot
		if docID != "" {
			source = "Document: " + file.Name
		}
	}
	if docID != "" {
		banner := UnverifiedBanner
		if verified {
			banner = VerifiedBanner
		}
		answer = banner + "\n\n**Response to Your Query:** " + answer
	}
	p.append(model.ChatMessage{Type: model.MessageAI, Text: answer, Source: source})
	return nil
}

// UploadedText replaces the upload placeholder once the backend answered
func UploadedText(name string, verified bool) string {
	outcome := "Verification failed or incomplete."
	if verified {
		outcome = "It has been verified."
	}
	return fmt.Sprintf("✅ Document \"%s\" uploaded successfully. %s", name, outcome)
}

func (p *Page) append(m model.ChatMessage) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, m)
	p.save()
	return len(p.messages) - 1
}

func (p *Page) replace(i int, m model.ChatMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < len(p.messages) {
		p.messages[i] = m
	}
	p.save()
}

// save must be called with the lock held; an empty transcript is never written
func (p *Page) save() {
	if len(p.messages) == 0 {
		return
	}
	if err := p.store.Set(p.key, p.messages); err != nil {
		slog.Warn("failed to save chat history", "key", p.key, "error", err)
	}
}
