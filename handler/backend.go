package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/middleware"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/pkg/logger"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/service"
	"github.com/gin-gonic/gin"
)

// BackendHandler serves the document verification and chat endpoints
type BackendHandler struct {
	documents   *service.DocumentService
	assistant   *service.AssistantService
	maxUploadMB int
}

func NewBackendHandler(documents *service.DocumentService, assistant *service.AssistantService, maxUploadMB int) *BackendHandler {
	return &BackendHandler{documents: documents, assistant: assistant, maxUploadMB: maxUploadMB}
}

// Upload handles POST /upload with a multipart "file" field
func (h *BackendHandler) Upload(c *gin.Context) {
	limit := int64(h.maxUploadMB) << 20
	// one extra MiB of headroom for the multipart framing
	bodyLimit := limit + 1<<20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || c.Request.ContentLength > bodyLimit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}
	if !service.AllowedFile(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return
	}
	if header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	result, err := h.documents.Upload(c.Request.Context(), middleware.Owner(c), header.Filename, content)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("document upload failed", "filename", header.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Chat handles POST /chat
func (h *BackendHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrNoQuery.Error()})
		return
	}

	resp, err := h.assistant.Chat(c.Request.Context(), middleware.Owner(c), req.Query, req.DocID)
	if errors.Is(err, service.ErrNoQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("chat failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "The assistant is unavailable. Please try again."})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClearHistory handles DELETE /chat/history, dropping the caller's
// conversation memory
func (h *BackendHandler) ClearHistory(c *gin.Context) {
	h.assistant.Forget(middleware.Owner(c))
	c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared"})
}

// ListDocuments handles GET /api/documents
func (h *BackendHandler) ListDocuments(c *gin.Context) {
	c.JSON(http.StatusOK, h.documents.List(c.Request.Context(), middleware.GetUID(c)))
}

func (h *BackendHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Customs Clearance AI Backend Running!",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
