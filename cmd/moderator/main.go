package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/tutorlink/moderation/internal/audit"
	"github.com/tutorlink/moderation/internal/history"
	"github.com/tutorlink/moderation/internal/messaging"
	"github.com/tutorlink/moderation/internal/metrics"
	"github.com/tutorlink/moderation/internal/moderation"
	"github.com/tutorlink/moderation/internal/ratelimit"
	"github.com/tutorlink/moderation/internal/strikes"
)

func main() {
	log.Println("Starting TutorLink moderation service...")

	// --- Redis ---
	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()

	// --- PostgreSQL (optional: no DSN disables the audit trail) ---
	var auditStore *audit.Store
	var db *sql.DB
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		migrationsURL := "file://migrations"
		if v := os.Getenv("MIGRATIONS_URL"); v != "" {
			migrationsURL = v
		}
		if err := audit.Migrate(migrationsURL, dsn); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}

		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("failed to open PostgreSQL: %v", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			log.Fatalf("failed to connect to PostgreSQL: %v", err)
		}
		cancel()
		auditStore = audit.NewStore(db)
	} else {
		log.Println("DATABASE_URL not set, audit trail disabled")
	}

	// --- NATS ---
	natsConfig := messaging.DefaultNATSConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "tutorlink-moderator"

	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// --- Moderation engine ---
	// Classifier credentials are read once here. Absence is not an error;
	// evaluation simply runs rule-only.
	rules := moderation.NewRuleEngine()
	ruleOnly := moderation.NewEngine(rules, nil)
	engine := ruleOnly
	classifierEnabled := false
	if apiKey := os.Getenv("MODERATION_API_KEY"); apiKey != "" {
		cfg := moderation.ClassifierConfig{APIKey: apiKey}
		if v := os.Getenv("MODERATION_API_URL"); v != "" {
			cfg.Endpoint = v
		}
		if v := os.Getenv("MODERATION_API_TIMEOUT"); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				cfg.Timeout = d
			}
		}
		engine = moderation.NewEngine(rules, moderation.NewHTTPClassifier(cfg))
		classifierEnabled = true
	} else {
		log.Println("MODERATION_API_KEY not set, external classifier disabled")
	}

	limiter := ratelimit.NewLimiter(rdb)
	strikeStore := strikes.NewStore(rdb)
	historyBuf := history.NewBuffer(history.DefaultCapacity)

	// publishResult sends the review outcome back to the requesting session.
	publishResult := func(req moderation.ReviewRequest, res moderation.ReviewResult) {
		res.SessionID = req.SessionID
		res.ChatID = req.ChatID
		payload, err := json.Marshal(res)
		if err != nil {
			log.Printf("[moderator] failed to marshal result: %v", err)
			return
		}
		if err := natsClient.PublishReviewResult(req.SessionID, payload); err != nil {
			log.Printf("[moderator] failed to publish result: %v", err)
		}
	}

	err = natsClient.SubscribeReviewRequests(func(data []byte) {
		var req moderation.ReviewRequest
		if err := json.Unmarshal(data, &req); err != nil {
			log.Printf("[moderator] failed to unmarshal request: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Muted senders are rejected outright; the mute itself is the reason.
		muted, remaining, muteReason, err := strikeStore.IsMuted(ctx, req.Sender)
		if err != nil {
			// Fail open: a Redis outage must not silence legitimate senders.
			log.Printf("[moderator] mute check failed for sender=%s: %v (continuing)", req.Sender, err)
		} else if muted {
			publishResult(req, moderation.ReviewResult{
				Allowed:       false,
				Severity:      moderation.SeverityBlock,
				Muted:         true,
				MuteRemaining: remaining,
				Messages:      []string{"You are temporarily muted: " + muteReason},
			})
			return
		}

		// Malformed payloads fail open: a moderation gate crashing the send
		// path is worse than letting one bad payload through.
		if err := moderation.ValidateText(req.Text); err != nil {
			log.Printf("[moderator] invalid text session=%s: %v (allowing)", req.SessionID, err)
			publishResult(req, moderation.ReviewResult{
				Allowed:  true,
				Severity: moderation.SeverityAllow,
			})
			return
		}

		// Budget the external classifier per sender; over budget the message
		// still gets full rule-based moderation.
		eng := engine
		if classifierEnabled {
			if ok, _ := limiter.Allow(ctx, req.Sender, ratelimit.RuleClassifier); !ok {
				metrics.ClassifierRequestsTotal.WithLabelValues("skipped").Inc()
				eng = ruleOnly
			}
		}

		start := time.Now()
		result := eng.Evaluate(ctx, req.Text)
		metrics.EvaluationLatency.Observe(time.Since(start).Seconds())

		if classifierEnabled && eng != ruleOnly {
			if result.Confidence != nil {
				metrics.ClassifierRequestsTotal.WithLabelValues("signal").Inc()
			} else {
				metrics.ClassifierRequestsTotal.WithLabelValues("no_signal").Inc()
			}
		}

		severity := moderation.ClassifySeverity(result)
		metrics.EvaluationsTotal.WithLabelValues(string(severity)).Inc()
		for _, c := range result.Reasons {
			metrics.CategoryHitsTotal.WithLabelValues(string(c)).Inc()
		}

		var messages []string
		for _, c := range result.Reasons {
			messages = append(messages, moderation.DescribeCategory(c))
		}

		publishResult(req, moderation.ReviewResult{
			Allowed:    result.Allowed,
			Severity:   severity,
			Reasons:    result.Reasons,
			Messages:   messages,
			Confidence: result.Confidence,
		})

		if result.Allowed {
			log.Printf("[moderator] CLEAN session=%s chat=%s", req.SessionID, req.ChatID)
			// Clean messages become conversation context for later audit
			// entries in the same chat.
			historyBuf.Add(req.ChatID, history.Message{From: req.Sender, Text: req.Text, Ts: req.Ts})
			return
		}

		log.Printf("[moderator] FLAGGED session=%s chat=%s severity=%s reasons=%v",
			req.SessionID, req.ChatID, severity, result.Reasons)

		if auditStore != nil && severity != moderation.SeverityAllow {
			entry := &audit.Entry{
				Sender:          req.Sender,
				ChatID:          req.ChatID,
				Text:            req.Text,
				Severity:        string(severity),
				Reasons:         categoryStrings(result.Reasons),
				FlaggedPatterns: result.FlaggedPatterns,
				Confidence:      result.Confidence,
				RawExternal:     result.RawExternal,
				Context:         contextMessages(historyBuf.Recent(req.ChatID)),
			}
			if err := auditStore.Record(ctx, entry); err != nil {
				metrics.AuditWriteFailuresTotal.Inc()
				log.Printf("[moderator] audit write failed: %v", err)
			}
		}

		evt, err := json.Marshal(moderation.FlaggedEvent{
			ChatID:   req.ChatID,
			Sender:   req.Sender,
			Severity: severity,
			Reasons:  result.Reasons,
			Ts:       time.Now().Unix(),
		})
		if err == nil {
			if err := natsClient.PublishFlagged(evt); err != nil {
				log.Printf("[moderator] failed to publish flagged event: %v", err)
			}
		}

		if severity == moderation.SeverityBlock {
			strikeMuted, duration, err := strikeStore.AddStrike(ctx, req.Sender, string(result.Reasons[0]))
			if err != nil {
				log.Printf("[moderator] strike update failed for sender=%s: %v", req.Sender, err)
			} else if strikeMuted {
				log.Printf("[moderator] sender=%s muted for %s", req.Sender, duration)
			}
		}
	})
	if err != nil {
		log.Fatalf("failed to subscribe to review requests: %v", err)
	}

	// --- Metrics endpoint ---
	metricsAddr := ":9100"
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		metricsAddr = v
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server error: %v", err)
		}
	}()

	log.Printf("TutorLink moderation service running")
	log.Printf("  redis_addr:   %s", redisAddr)
	log.Printf("  nats_url:     %s", natsConfig.URL)
	log.Printf("  metrics_addr: %s", metricsAddr)
	log.Printf("  classifier:   %v", classifierEnabled)
	log.Printf("  audit_trail:  %v", auditStore != nil)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	natsClient.Close()
	rdb.Close()
	if db != nil {
		db.Close()
	}
}

func categoryStrings(categories []moderation.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

func contextMessages(msgs []history.Message) []audit.ContextMessage {
	out := make([]audit.ContextMessage, len(msgs))
	for i, m := range msgs {
		out[i] = audit.ContextMessage{From: m.From, Text: m.Text, Ts: m.Ts}
	}
	return out
}
