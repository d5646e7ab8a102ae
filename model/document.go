package model

import (
	"time"
)

// PDFMediaType is the only declared type the upload page accepts
const PDFMediaType = "application/pdf"

// UploadedDocument is the client-side history entry for an upload.
// It lives only for the session.
type UploadedDocument struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Verified   bool      `json:"verified"`
	UploadedAt time.Time `json:"uploaded_at"`
	Analysis   string    `json:"analysis,omitempty"`
}

// UploadResult is the body returned by POST /upload
type UploadResult struct {
	DocID        string `json:"doc_id"`
	Verified     bool   `json:"verified"`
	DocumentType string `json:"document_type,omitempty"`
	Verification string `json:"verification,omitempty"`
	Analysis     string `json:"analysis,omitempty"`
}

// DocumentSummary is one entry of GET /api/documents
type DocumentSummary struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type"`
	Verified     bool      `json:"verified"`
	UploadedAt   time.Time `json:"uploaded_at"`
	DownloadURL  string    `json:"download_url,omitempty"`
}

// StoredDocument is the server-side record kept for chat context
type StoredDocument struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Filename     string    `json:"filename"`
	ObjectName   string    `json:"object_name,omitempty"`
	Text         string    `json:"-"`
	DocumentType string    `json:"document_type"`
	Verified     bool      `json:"verified"`
	Verification string    `json:"verification"`
	CreatedAt    time.Time `json:"created_at"`
}
