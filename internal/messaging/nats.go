// Package messaging provides a NATS client wrapper for the moderation
// service. Chat servers publish review requests, the moderation worker
// publishes per-session results, and flagged messages fan out to admin
// consumers on a broadcast subject.
package messaging

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects used by the moderation pipeline.
const (
	SubjectReviewRequest = "moderation.check"
	SubjectReviewResult  = "moderation.result" // + .<session_id>
	SubjectFlagged       = "moderation.flagged"
)

// NATSClient wraps the NATS connection with helper methods for pub/sub.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Name:          "moderation",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewNATSClient connects to NATS with the given config and returns a ready
// client. It returns an error if the initial connection fails.
func NewNATSClient(config NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *NATSClient) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// SubscribeReviewRequests subscribes to incoming moderation review requests.
func (c *NATSClient) SubscribeReviewRequests(handler func(data []byte)) error {
	return c.Subscribe(SubjectReviewRequest, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishReviewRequest publishes a review request. Chat servers call this
// on their message send path.
func (c *NATSClient) PublishReviewRequest(data []byte) error {
	return c.Publish(SubjectReviewRequest, data)
}

// PublishReviewResult publishes a review result for a specific session.
func (c *NATSClient) PublishReviewResult(sessionID string, data []byte) error {
	return c.Publish(SubjectReviewResult+"."+sessionID, data)
}

// SubscribeReviewResult subscribes to review results for a specific session.
// Chat servers use this to learn the outcome for messages they submitted.
func (c *NATSClient) SubscribeReviewResult(sessionID string, handler func(data []byte)) error {
	subject := SubjectReviewResult + "." + sessionID
	return c.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// UnsubscribeReviewResult unsubscribes from review results for a session.
func (c *NATSClient) UnsubscribeReviewResult(sessionID string) error {
	return c.unsubscribe(SubjectReviewResult + "." + sessionID)
}

// PublishFlagged broadcasts a flagged-message event for admin consumers.
func (c *NATSClient) PublishFlagged(data []byte) error {
	return c.Publish(SubjectFlagged, data)
}

// SubscribeFlagged subscribes to flagged-message events.
func (c *NATSClient) SubscribeFlagged(handler func(data []byte)) error {
	return c.Subscribe(SubjectFlagged, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}

// unsubscribe removes and unsubscribes from a specific subject.
func (c *NATSClient) unsubscribe(subject string) error {
	c.mu.Lock()
	sub, ok := c.subs[subject]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("nats: no subscription for subject %s", subject)
	}
	delete(c.subs, subject)
	c.mu.Unlock()

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe %s: %w", subject, err)
	}
	return nil
}
