package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sort"
	"time"
)

const (
	// DefaultClassifierEndpoint is the OpenAI-compatible text moderation API.
	DefaultClassifierEndpoint = "https://api.openai.com/v1/moderations"

	// DefaultClassifierTimeout caps the single classification round trip.
	// Moderation is advisory; a slow classifier must not hold up the chat
	// send path, so there is exactly one attempt and no retry.
	DefaultClassifierTimeout = 3 * time.Second

	// maxClassifierResponseBytes bounds how much of the response body is read.
	maxClassifierResponseBytes = 1 << 20
)

// externalCategoryMap translates the classifier's native taxonomy onto the
// local category set. Native categories without a mapping pass through under
// their external name.
var externalCategoryMap = map[string]Category{
	"sexual":                 CategorySexualContent,
	"sexual/minors":          CategoryGrooming,
	"harassment":             CategoryHarassment,
	"harassment/threatening": CategoryThreatening,
	"hate":                   CategoryHateSpeech,
	"hate/threatening":       CategoryHateSpeech,
	"self-harm":              CategorySelfHarm,
	"self-harm/intent":       CategorySelfHarm,
	"self-harm/instructions": CategorySelfHarm,
	"violence":               CategoryViolence,
	"violence/graphic":       CategoryViolence,
}

// Signal is the normalized output of one external classification.
type Signal struct {
	Flagged    bool
	Categories []Category
	Confidence float64 // max of the per-category scores
	Raw        json.RawMessage
}

// Classifier produces a best-effort external signal for message text.
// A nil return means "no additional signal": the service was unreachable,
// misconfigured, returned a non-2xx status, or sent a malformed payload.
// Implementations must never fail the evaluation path.
type Classifier interface {
	Classify(ctx context.Context, text string) *Signal
}

// ClassifierConfig holds settings for the HTTP classifier. Credentials are
// read once at process start; an empty APIKey means the classifier step is
// skipped entirely and moderation runs rule-only.
type ClassifierConfig struct {
	APIKey   string
	Endpoint string        // defaults to DefaultClassifierEndpoint
	Timeout  time.Duration // defaults to DefaultClassifierTimeout
}

// HTTPClassifier calls an OpenAI-compatible /v1/moderations endpoint.
// It holds no mutable state between calls; concurrent use is safe.
type HTTPClassifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPClassifier returns a classifier using the given config, filling in
// defaults for the endpoint and timeout.
func NewHTTPClassifier(cfg ClassifierConfig) *HTTPClassifier {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultClassifierEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClassifierTimeout
	}
	return &HTTPClassifier{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// classifierRequest is the wire format sent to the moderation endpoint.
type classifierRequest struct {
	Input string `json:"input"`
}

// classifierResponse mirrors the moderation endpoint's response shape.
type classifierResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// Classify sends text to the moderation endpoint and normalizes the result.
// Every failure mode is caught here and collapsed to nil so that callers
// degrade to rule-only evaluation.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) *Signal {
	body, err := json.Marshal(classifierRequest{Input: text})
	if err != nil {
		log.Printf("[classifier] marshal request: %v (no signal)", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("[classifier] build request: %v (no signal)", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[classifier] request failed: %v (no signal)", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[classifier] status %d (no signal)", resp.StatusCode)
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxClassifierResponseBytes))
	if err != nil {
		log.Printf("[classifier] read response: %v (no signal)", err)
		return nil
	}

	var parsed classifierResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Printf("[classifier] malformed response: %v (no signal)", err)
		return nil
	}
	if len(parsed.Results) == 0 {
		log.Printf("[classifier] empty results (no signal)")
		return nil
	}

	result := parsed.Results[0]

	var categories []Category
	seen := make(map[Category]bool)
	for name, flagged := range result.Categories {
		if !flagged {
			continue
		}
		cat, ok := externalCategoryMap[name]
		if !ok {
			cat = Category(name)
		}
		if !seen[cat] {
			seen[cat] = true
			categories = append(categories, cat)
		}
	}
	// Map iteration order is random; keep the output deterministic.
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var confidence float64
	for _, score := range result.CategoryScores {
		if score > confidence {
			confidence = score
		}
	}

	return &Signal{
		Flagged:    result.Flagged,
		Categories: categories,
		Confidence: confidence,
		Raw:        raw,
	}
}
