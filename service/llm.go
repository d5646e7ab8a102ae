package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no text
var ErrEmptyResponse = errors.New("empty model response")

// Conversation roles
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one message in a conversation sent to the model
type Turn struct {
	Role string
	Text string
}

// Generator produces text from a system instruction and a conversation.
// The last turn is the one being answered.
type Generator interface {
	Generate(ctx context.Context, system string, turns []Turn) (string, error)
}

// Transcriber reads the text out of an image
type Transcriber interface {
	Transcribe(ctx context.Context, mediaType string, image []byte) (string, error)
}

const transcribePrompt = "Transcribe all text in this image exactly as written, line by line. Reply with the text only, or nothing if the image has no text."

// GenAIGenerator is a Generator backed by the Gemini API
type GenAIGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGenAIGenerator(ctx context.Context, cfg *config.AssistantConfig) (*GenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, system string, turns []Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.RoleUser
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, genai.Role(role)))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Transcribe sends the image inline with an OCR instruction
func (g *GenAIGenerator) Transcribe(ctx context.Context, mediaType string, image []byte) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(image, mediaType),
		genai.NewPartFromText(transcribePrompt),
	}, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe image: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
