package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	RequestStyleNested = "nested"
	RequestStyleFlat   = "flat"
)

// RESTGenerator posts the prompt to a generateContent-style HTTP endpoint.
// Nested style sends {"contents":[{"parts":[{"text":...}]}]}, flat style sends
// {"prompt":...}. Either response shape is accepted.
type RESTGenerator struct {
	endpoint string
	apiKey   string
	style    string
	http     *http.Client
}

func NewRESTGenerator(endpoint, apiKey, style string, client *http.Client) *RESTGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	if style != RequestStyleFlat {
		style = RequestStyleNested
	}
	return &RESTGenerator{endpoint: endpoint, apiKey: apiKey, style: style, http: client}
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Parts []restPart `json:"parts"`
}

// restResponse covers both calling conventions of the endpoint.
type restResponse struct {
	Text       string `json:"text"`
	Candidates []struct {
		Content restContent `json:"content"`
	} `json:"candidates"`
}

func (r restResponse) normalized() string {
	if strings.TrimSpace(r.Text) != "" {
		return strings.TrimSpace(r.Text)
	}
	// The answer is the first candidate, all of its parts.
	if len(r.Candidates) == 0 {
		return ""
	}
	var text strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return strings.TrimSpace(text.String())
}

func (g *RESTGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := checkRequest(g.apiKey, prompt); err != nil {
		return "", err
	}

	var payload interface{}
	if g.style == RequestStyleFlat {
		payload = map[string]string{"prompt": prompt}
	} else {
		payload = map[string]interface{}{
			"contents": []restContent{{Parts: []restPart{{Text: prompt}}}},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint, err := url.Parse(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid generative endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", g.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generative API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generative API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var decoded restResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}

	text := decoded.normalized()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
