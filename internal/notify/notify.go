// Package notify publishes build events to NATS so downstream consumers
// (site deployers, cache invalidators) can react to finished builds.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docmacro/internal/logfields"
)

// BuildEvent describes one finished build.
type BuildEvent struct {
	BuildID   string    `json:"build_id"`
	Status    string    `json:"status"`
	SiteName  string    `json:"site_name"`
	OutputDir string    `json:"output_dir"`
	Rendered  int       `json:"rendered"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Duration  string    `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends build events on one subject over a NATS connection.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher connects to NATS. An empty URL means publishing is disabled
// and a nil Publisher is returned; all Publisher methods tolerate nil.
func NewPublisher(url, subject string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(url,
		nats.Name("docmacro"),
		nats.MaxReconnects(3),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	logger.Info("build event publishing enabled",
		slog.String("url", url), logfields.Subject(subject))
	return &Publisher{conn: conn, subject: subject, logger: logger}, nil
}

// Publish sends one build event. Failures are returned, not fatal; callers
// log and continue since notification is best-effort.
func (p *Publisher) Publish(event BuildEvent) error {
	if p == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}

	p.logger.Debug("published build event",
		logfields.BuildID(event.BuildID), logfields.Subject(p.subject))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
