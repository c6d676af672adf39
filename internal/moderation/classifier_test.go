package moderation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClassify_NormalizesResponse(t *testing.T) {
	body := `{"results":[{
		"flagged": true,
		"categories": {
			"hate/threatening": true,
			"violence": true,
			"sexual/minors": true,
			"custom-topic": true,
			"sexual": false
		},
		"category_scores": {
			"hate/threatening": 0.82,
			"violence": 0.91,
			"sexual/minors": 0.40,
			"custom-topic": 0.10
		}
	}]}`

	var gotAuth string
	var gotInput string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Input string `json:"input"`
		}
		json.Unmarshal(raw, &req)
		gotInput = req.Input
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	defer server.Close()

	c := NewHTTPClassifier(ClassifierConfig{APIKey: "test-key", Endpoint: server.URL})
	sig := c.Classify(context.Background(), "some message")

	if sig == nil {
		t.Fatal("Classify returned nil for a valid response")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotInput != "some message" {
		t.Errorf("request input = %q, want the message text", gotInput)
	}
	if !sig.Flagged {
		t.Error("Flagged = false, want true")
	}

	// hate/threatening, violence, and sexual/minors map onto local
	// categories; custom-topic has no mapping and passes through.
	want := map[Category]bool{
		CategoryHateSpeech:       true,
		CategoryViolence:         true,
		CategoryGrooming:         true,
		Category("custom-topic"): true,
	}
	got := make(map[Category]bool)
	for _, c := range sig.Categories {
		got[c] = true
	}
	for c := range want {
		if !got[c] {
			t.Errorf("categories %v missing %q", sig.Categories, c)
		}
	}
	if len(got) != len(want) {
		t.Errorf("categories = %v, want %d entries", sig.Categories, len(want))
	}

	if sig.Confidence != 0.91 {
		t.Errorf("Confidence = %v, want max score 0.91", sig.Confidence)
	}
	if string(sig.Raw) != body {
		t.Errorf("Raw = %s, want the verbatim response body", sig.Raw)
	}
}

func TestClassify_DeduplicatesMappedCategories(t *testing.T) {
	// hate and hate/threatening both map to hate-speech.
	body := `{"results":[{
		"flagged": true,
		"categories": {"hate": true, "hate/threatening": true},
		"category_scores": {"hate": 0.7, "hate/threatening": 0.6}
	}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, body)
	}))
	defer server.Close()

	c := NewHTTPClassifier(ClassifierConfig{APIKey: "k", Endpoint: server.URL})
	sig := c.Classify(context.Background(), "text")

	if sig == nil {
		t.Fatal("Classify returned nil")
	}
	if len(sig.Categories) != 1 || sig.Categories[0] != CategoryHateSpeech {
		t.Errorf("Categories = %v, want exactly [hate-speech]", sig.Categories)
	}
}

func TestClassify_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewHTTPClassifier(ClassifierConfig{APIKey: "k", Endpoint: server.URL})
		if sig := c.Classify(context.Background(), "text"); sig != nil {
			t.Errorf("status %d: Classify = %+v, want nil", status, sig)
		}
		server.Close()
	}
}

func TestClassify_MalformedPayload(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "<html>gateway error</html>",
		"empty results": `{"results":[]}`,
		"empty body":    "",
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, body)
			}))
			defer server.Close()

			c := NewHTTPClassifier(ClassifierConfig{APIKey: "k", Endpoint: server.URL})
			if sig := c.Classify(context.Background(), "text"); sig != nil {
				t.Errorf("Classify = %+v, want nil", sig)
			}
		})
	}
}

func TestClassify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close() // connection refused from here on

	c := NewHTTPClassifier(ClassifierConfig{APIKey: "k", Endpoint: url})
	if sig := c.Classify(context.Background(), "text"); sig != nil {
		t.Errorf("Classify = %+v, want nil for unreachable endpoint", sig)
	}
}

func TestClassify_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"results":[{"flagged":false}]}`)
	}))
	defer server.Close()

	c := NewHTTPClassifier(ClassifierConfig{
		APIKey:   "k",
		Endpoint: server.URL,
		Timeout:  50 * time.Millisecond,
	})
	if sig := c.Classify(context.Background(), "text"); sig != nil {
		t.Errorf("Classify = %+v, want nil on timeout", sig)
	}
}

func TestClassify_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `{"results":[{"flagged":false}]}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPClassifier(ClassifierConfig{APIKey: "k", Endpoint: server.URL})
	if sig := c.Classify(ctx, "text"); sig != nil {
		t.Errorf("Classify = %+v, want nil for cancelled context", sig)
	}
}

func TestNewHTTPClassifier_Defaults(t *testing.T) {
	c := NewHTTPClassifier(ClassifierConfig{APIKey: "k"})
	if c.endpoint != DefaultClassifierEndpoint {
		t.Errorf("endpoint = %q, want default", c.endpoint)
	}
	if c.client.Timeout != DefaultClassifierTimeout {
		t.Errorf("timeout = %v, want default", c.client.Timeout)
	}
}
