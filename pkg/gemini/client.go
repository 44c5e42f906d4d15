package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dkovalev/gemini-relay/pkg/domain"
)

// Generation policy constants, identical on every attempt.
const (
	generationTemperature     = 1.3
	generationTopK            = 40
	generationTopP            = 0.95
	generationMaxOutputTokens = 8192
)

type client struct {
	modelName string
}

func NewClient(modelName string) (*client, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is empty")
	}
	return &client{modelName: modelName}, nil
}

// GenerateReply performs a single round trip against the Gemini API. The
// genai client is scoped to the attempt, so every credential gets a fresh
// session with the same system instruction and generation config.
func (c *client) GenerateReply(ctx context.Context, credential string, req domain.ChatRequest) (string, error) {
	api, err := genai.NewClient(ctx, option.WithAPIKey(credential))
	if err != nil {
		return "", fmt.Errorf("creating genai client: %w", err)
	}
	defer api.Close()

	model := api.GenerativeModel(c.modelName)
	model.SetTemperature(generationTemperature)
	model.SetTopK(generationTopK)
	model.SetTopP(generationTopP)
	model.SetMaxOutputTokens(generationMaxOutputTokens)
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemInstruction)}}
	}

	session := model.StartChat()
	session.History = buildHistory(req.History)

	parts, err := buildParts(req.Message, req.Images)
	if err != nil {
		return "", err
	}

	resp, err := session.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}

	return extractText(resp), nil
}

func buildHistory(turns []domain.ChatTurn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		content := &genai.Content{Role: domain.NormalizeRole(turn.Role)}
		for _, text := range turn.Parts {
			content.Parts = append(content.Parts, genai.Text(text))
		}
		history = append(history, content)
	}
	return history
}

// buildParts assembles the outbound turn: text first, then images in input order.
func buildParts(message string, images []domain.Attachment) ([]genai.Part, error) {
	var parts []genai.Part
	if strings.TrimSpace(message) != "" {
		parts = append(parts, genai.Text(message))
	}
	for _, img := range images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding image data: %w", err)
		}
		parts = append(parts, genai.Blob{MIMEType: img.MimeType, Data: data})
	}
	return parts, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}
