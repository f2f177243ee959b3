// Package trivia asks a Gemini-compatible text-generation endpoint for a
// question. It fails soft: whatever goes wrong, the host gets a placeholder
// string, never an error. The game does not depend on this service.
package trivia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const Placeholder = "Could not generate a question. Please try again."

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

type Generator struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewGenerator(apiKey, endpoint string, logger *zap.Logger) *Generator {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Generator{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.Named("trivia"),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Question returns a trivia question, or the placeholder on any failure.
func (g *Generator) Question(ctx context.Context, topic string) string {
	if g.apiKey == "" {
		return Placeholder
	}

	prompt := "Generate a random, interesting general knowledge trivia question. Return ONLY the question text."
	if topic != "" {
		prompt = fmt.Sprintf("Generate a short, engaging trivia question about %q. Return ONLY the question text.", topic)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		g.logger.Warn("marshal request", zap.Error(err))
		return Placeholder
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		g.logger.Warn("build request", zap.Error(err))
		return Placeholder
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("generate question", zap.Error(err))
		return Placeholder
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("generate question", zap.Int("status", resp.StatusCode))
		return Placeholder
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		g.logger.Warn("decode response", zap.Error(err))
		return Placeholder
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return Placeholder
	}

	question := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if question == "" {
		return Placeholder
	}
	return question
}
