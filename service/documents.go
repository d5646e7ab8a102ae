package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime"
	"path/filepath"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/google/uuid"
)

// Analyzer explains an uploaded document for customs clearance
type Analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
}

// DocumentService handles /upload: extraction, archiving, verification,
// analysis and registration for chat context.
type DocumentService struct {
	documents  *DocumentStore
	verifier   Verifier
	storage    ObjectStorage // nil when archiving is disabled
	ocr        Transcriber
	analyzer   Analyzer
	translator *Translator
}

func NewDocumentService(documents *DocumentStore, verifier Verifier, storage ObjectStorage) *DocumentService {
	return &DocumentService{documents: documents, verifier: verifier, storage: storage}
}

// WithOCR lets image uploads be read by t
func (s *DocumentService) WithOCR(t Transcriber) *DocumentService {
	s.ocr = t
	return s
}

// WithAnalysis adds an analysis to every upload. tr, if set, renders the
// report and analysis in the document's language.
func (s *DocumentService) WithAnalysis(a Analyzer, tr *Translator) *DocumentService {
	s.analyzer = a
	s.translator = tr
	return s
}

// Upload processes one file for owner and returns the verification result
func (s *DocumentService) Upload(ctx context.Context, owner, filename string, content []byte) (model.UploadResult, error) {
	if !AllowedFile(filename) {
		return model.UploadResult{}, ErrUnsupportedFile
	}

	text, err := s.extract(ctx, filename, content)
	if err != nil {
		// unreadable files are still registered, just never verified
		slog.Warn("text extraction failed", "filename", filename, "error", err)
		text = ""
	}

	doc := &model.StoredDocument{
		ID:       uuid.New().String(),
		Owner:    owner,
		Filename: filepath.Base(filename),
		Text:     text,
	}

	if s.storage != nil {
		objectName := ObjectName(owner, doc.ID, doc.Filename)
		contentType := mime.TypeByExtension(filepath.Ext(filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.storage.UploadFile(ctx, objectName, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
			slog.Error("failed to archive upload", "object", objectName, "error", err)
		} else {
			doc.ObjectName = objectName
		}
	}

	v, err := s.verifier.Verify(ctx, doc.Filename, text)
	if err != nil {
		return model.UploadResult{}, err
	}
	doc.DocumentType = v.DocumentType
	doc.Verified = v.Verified
	doc.Verification = v.Report

	var analysis string
	if s.analyzer != nil {
		if analysis, err = s.analyzer.Analyze(ctx, text); err != nil {
			slog.Warn("document analysis failed", "doc_id", doc.ID, "error", err)
			analysis = ""
		}
	}

	s.discard(ctx, s.documents.Save(doc))
	slog.Info("document uploaded",
		"doc_id", doc.ID,
		"owner", owner,
		"document_type", doc.DocumentType,
		"verified", doc.Verified,
	)

	report := doc.Verification
	if lang := s.translator.Detect(ctx, text); lang != English {
		report = s.translator.FromEnglish(ctx, report, lang)
		analysis = s.translator.FromEnglish(ctx, analysis, lang)
	}

	return model.UploadResult{
		DocID:        doc.ID,
		Verified:     doc.Verified,
		DocumentType: doc.DocumentType,
		Verification: report,
		Analysis:     analysis,
	}, nil
}

func (s *DocumentService) extract(ctx context.Context, filename string, content []byte) (string, error) {
	text, err := ExtractText(filename, content)
	if !errors.Is(err, ErrNeedsOCR) {
		return text, err
	}
	if s.ocr == nil {
		return "", errors.New("image text recognition is not configured")
	}
	return s.ocr.Transcribe(ctx, ImageType(filename), content)
}

// discard removes the archived copies of evicted documents
func (s *DocumentService) discard(ctx context.Context, evicted []*model.StoredDocument) {
	if s.storage == nil {
		return
	}
	for _, d := range evicted {
		if d.ObjectName == "" {
			continue
		}
		if err := s.storage.DeleteFile(ctx, d.ObjectName); err != nil {
			slog.Error("failed to delete evicted upload", "object", d.ObjectName, "error", err)
		}
	}
}

// List returns owner's registered documents oldest first, with a download
// link for archived ones
func (s *DocumentService) List(ctx context.Context, owner string) []model.DocumentSummary {
	docs := s.documents.ListByOwner(owner)
	out := make([]model.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		sum := model.DocumentSummary{
			ID:           d.ID,
			Filename:     d.Filename,
			DocumentType: d.DocumentType,
			Verified:     d.Verified,
			UploadedAt:   d.CreatedAt,
		}
		if s.storage != nil && d.ObjectName != "" {
			url, err := s.storage.GetPresignedURL(ctx, d.ObjectName)
			if err != nil {
				slog.Warn("failed to sign download link", "object", d.ObjectName, "error", err)
			} else {
				sum.DownloadURL = url
			}
		}
		out = append(out, sum)
	}
	return out
}
