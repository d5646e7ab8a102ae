package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

func (c *Client) ListLanes(ctx context.Context) ([]model.TradeLane, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var resp struct {
		Lanes []model.TradeLane `json:"lanes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/tradelanes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lanes, nil
}

// AddLane writes a lane to the caller's collection and returns it with the
// server-assigned id
func (c *Client) AddLane(ctx context.Context, lane model.TradeLane) (model.TradeLane, error) {
	if err := c.requireSession(); err != nil {
		return model.TradeLane{}, err
	}
	body := map[string]string{"from": lane.From, "to": lane.To, "category": lane.Category}
	var created model.TradeLane
	if err := c.doJSON(ctx, http.MethodPost, "/api/tradelanes", body, &created); err != nil {
		return model.TradeLane{}, err
	}
	return created, nil
}

func (c *Client) DeleteLane(ctx context.Context, id string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/tradelanes/"+url.PathEscape(id), nil, nil)
}

// Upload posts content as the multipart "file" field
func (c *Client) Upload(ctx context.Context, filename, contentType string, content io.Reader) (model.UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return model.UploadResult{}, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return model.UploadResult{}, fmt.Errorf("failed to read file: %w", err)
	}
	if err := w.Close(); err != nil {
		return model.UploadResult{}, fmt.Errorf("failed to close form: %w", err)
	}

	var result model.UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload", w.FormDataContentType(), &buf, &result); err != nil {
		return model.UploadResult{}, err
	}
	return result, nil
}

// Chat sends one question, optionally about an uploaded document
func (c *Client) Chat(ctx context.Context, query, docID string) (model.ChatResponse, error) {
	var resp model.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chat", model.ChatRequest{Query: query, DocID: docID}, &resp)
	return resp, err
}

// ClearChat drops the conversation memory the server keeps for the caller
func (c *Client) ClearChat(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/chat/history", nil, nil)
}

func (c *Client) ListDocuments(ctx context.Context) ([]model.DocumentSummary, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var docs []model.DocumentSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
