// Command modcheck evaluates message text against the moderation engine
// from the command line. With arguments it evaluates them as one message;
// with no arguments it reads one message per line from stdin and evaluates
// the batch concurrently. Results are printed as JSON, one per line.
//
// Set MODERATION_API_KEY to include the external classifier; without it the
// evaluation is rule-only.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tutorlink/moderation/internal/moderation"
)

func main() {
	var classifier moderation.Classifier
	if apiKey := os.Getenv("MODERATION_API_KEY"); apiKey != "" {
		cfg := moderation.ClassifierConfig{APIKey: apiKey}
		if v := os.Getenv("MODERATION_API_URL"); v != "" {
			cfg.Endpoint = v
		}
		classifier = moderation.NewHTTPClassifier(cfg)
	}

	engine := moderation.NewEngine(moderation.NewRuleEngine(), classifier)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(os.Args) > 1 {
		text := strings.Join(os.Args[1:], " ")
		printResult(engine.Evaluate(ctx, text))
		return
	}

	var texts []string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), moderation.MaxTextBytes+1)
	for scanner.Scan() {
		texts = append(texts, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read stdin: %v", err)
	}

	for _, result := range engine.EvaluateAll(ctx, texts) {
		printResult(result)
	}
}

func printResult(result moderation.Result) {
	out := struct {
		moderation.Result
		Severity moderation.Severity `json:"severity"`
	}{Result: result, Severity: moderation.ClassifySeverity(result)}

	data, err := json.Marshal(out)
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	fmt.Println(string(data))
}
