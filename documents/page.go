// Package documents is the upload page: intake of a PDF by drop, paste or
// browse, upload for verification, and the session's upload history.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

var (
	ErrBusy   = errors.New("an upload is already in progress")
	ErrNotPDF = errors.New("not a PDF file")
	ErrNoFile = errors.New("no file")
)

// Status messages
const (
	MsgNotPDF    = "Please upload a PDF file only."
	MsgVerifying = "Verifying document..."
	MsgFailed    = "Error verifying document. Try again."
	MsgRemoved   = "Document removed successfully."
	// SizeHint sits next to the drop zone; the server enforces its own limit
	SizeHint = "PDF only • Max 10 MB"
)

// Uploader sends a file to the verification backend
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (model.UploadResult, error)
}

// File is a candidate for upload with its declared media type
type File struct {
	Name      string
	MediaType string
	Content   []byte
}

func (f File) isPDF() bool {
	return f.MediaType == model.PDFMediaType
}

type Page struct {
	uploader Uploader
	now      func() time.Time

	mu        sync.Mutex
	uploading bool
	status    string
	history   []model.UploadedDocument
}

func NewPage(uploader Uploader) *Page {
	return &Page{uploader: uploader, now: time.Now}
}

// Drop handles files dropped on the page; only the first is considered
func (p *Page) Drop(ctx context.Context, files []File) (*model.UploadedDocument, error) {
	if len(files) == 0 || !files[0].isPDF() {
		p.setStatus(MsgNotPDF)
		return nil, ErrNotPDF
	}
	return p.upload(ctx, files[0])
}

// Paste uploads the first PDF among pasted items. Without one nothing happens.
func (p *Page) Paste(ctx context.Context, items []File) (*model.UploadedDocument, error) {
	for _, item := range items {
		if item.isPDF() {
			return p.upload(ctx, item)
		}
	}
	return nil, ErrNoFile
}

// Browse handles a file picked from the file chooser
func (p *Page) Browse(ctx context.Context, f File) (*model.UploadedDocument, error) {
	if !f.isPDF() {
		p.setStatus(MsgNotPDF)
		return nil, ErrNotPDF
	}
	return p.upload(ctx, f)
}

func (p *Page) upload(ctx context.Context, f File) (*model.UploadedDocument, error) {
	p.mu.Lock()
	if p.uploading {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.uploading = true
	p.status = MsgVerifying
	p.mu.Unlock()

	res, err := p.uploader.Upload(ctx, f.Name, f.MediaType, bytes.NewReader(f.Content))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploading = false
	if err != nil {
		slog.Error("document upload failed", "name", f.Name, "error", err)
		p.status = MsgFailed
		return nil, err
	}

	doc := model.UploadedDocument{
		ID:         res.DocID,
		Name:       f.Name,
		Verified:   res.Verified,
		UploadedAt: p.now(),
		Analysis:   res.Analysis,
	}
	p.history = append(p.history, doc)
	p.status = ResultMessage(doc)
	return &doc, nil
}

// ResultMessage is the status line after a successful upload
func ResultMessage(doc model.UploadedDocument) string {
	if doc.Verified {
		return fmt.Sprintf("✔ \"%s\" verified successfully!", doc.Name)
	}
	return fmt.Sprintf("❌ \"%s\" uploaded but NOT verified.", doc.Name)
}

// Remove drops a document from the local history only
func (p *Page) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.history[:0]
	for _, d := range p.history {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	p.history = kept
	p.status = MsgRemoved
}

func (p *Page) setStatus(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

func (p *Page) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Uploading is true while a request is outstanding
func (p *Page) Uploading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploading
}

func (p *Page) History() []model.UploadedDocument {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.UploadedDocument(nil), p.history...)
}
