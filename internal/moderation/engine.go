package moderation

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxBatchConcurrency bounds how many evaluations run at once in
// EvaluateAll. Each evaluation may hold one outbound HTTP request, so the
// limit keeps a large batch from opening unbounded connections.
const maxBatchConcurrency = 8

// Result is the outcome of evaluating one message. A fresh Result is built
// per call; nothing is persisted by this package.
//
// Invariant: Allowed is true exactly when Reasons is empty.
type Result struct {
	Allowed bool `json:"allowed"`

	// Reasons is the deduplicated set of categories that flagged the
	// message. Order is not significant; callers must compare as a set.
	Reasons []Category `json:"reasons,omitempty"`

	// Confidence is present only when the external classifier responded.
	Confidence *float64 `json:"confidence,omitempty"`

	// FlaggedPatterns lists the local rules that matched, for diagnostics.
	FlaggedPatterns []string `json:"flagged_patterns,omitempty"`

	// RawExternal is the classifier's raw response, passed through
	// unmodified for audit trails.
	RawExternal json.RawMessage `json:"raw_external,omitempty"`
}

// Scanner is the rule-engine side of an evaluation.
type Scanner interface {
	Scan(text string) ([]Category, []string)
}

// Engine coordinates the rule engine and the external classifier and is the
// single entry point for message evaluation.
type Engine struct {
	rules      Scanner
	classifier Classifier // nil disables the external step
}

// NewEngine builds an Engine from its two sub-components. Passing a nil
// classifier yields rule-only evaluation.
func NewEngine(rules Scanner, classifier Classifier) *Engine {
	return &Engine{rules: rules, classifier: classifier}
}

// Evaluate runs one message through the rule engine and, when configured,
// the external classifier, and merges both into a single Result. Empty or
// whitespace-only text is allowed immediately without invoking either
// sub-component. A classifier failure contributes nothing; it never fails
// the evaluation.
func (e *Engine) Evaluate(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Allowed: true}
	}

	categories, matched := e.rules.Scan(text)

	var reasons []Category
	seen := make(map[Category]bool)
	for _, c := range categories {
		if !seen[c] {
			seen[c] = true
			reasons = append(reasons, c)
		}
	}

	result := Result{FlaggedPatterns: matched}

	if e.classifier != nil {
		if sig := e.classifier.Classify(ctx, text); sig != nil {
			for _, c := range sig.Categories {
				if !seen[c] {
					seen[c] = true
					reasons = append(reasons, c)
				}
			}
			confidence := sig.Confidence
			result.Confidence = &confidence
			result.RawExternal = sig.Raw
		}
	}

	result.Reasons = reasons
	result.Allowed = len(reasons) == 0
	return result
}

// EvaluateAll evaluates each text independently and concurrently. Results
// are returned in input order; a slow or failed classifier call for one
// message does not delay or fail the others.
func (e *Engine) EvaluateAll(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			results[i] = e.Evaluate(ctx, text)
			return nil
		})
	}
	// Evaluate never errors; Wait only joins the goroutines.
	_ = g.Wait()

	return results
}

// ClassifySeverity derives the action class from a result's reason set.
// It is a pure function: confidence and matched patterns play no part.
func ClassifySeverity(r Result) Severity {
	for _, c := range r.Reasons {
		if blockCategories[c] {
			return SeverityBlock
		}
	}
	for _, c := range r.Reasons {
		if warnCategories[c] {
			return SeverityWarn
		}
	}
	return SeverityAllow
}
