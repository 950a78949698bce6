// Package ingest consumes integration events from Kafka and turns them
// into notifications. Offsets are committed only after the database
// write succeeds, so delivery is at-least-once.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
)

// ConsumerConfig defines Kafka consumer parameters.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// FetchTimeout bounds a single fetch so shutdown stays responsive.
	FetchTimeout time.Duration
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:        "integration.events",
		FetchTimeout: time.Second,
	}
}

// Message is the wire format of an integration event.
type Message struct {
	TenantID string          `json:"tenant_id"`
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Notifier stores a notification and fans out webhooks. Satisfied by
// notify.Service.
type Notifier interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
}

// Handler converts one Kafka message into a notification.
type Handler struct {
	notifier Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewHandler(notifier Notifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{notifier: notifier, logger: logger}
}

// WithMetrics enables Prometheus metrics collection.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// Handle processes one message. Malformed messages are logged and
// dropped (returning them would wedge the partition); only transient
// store errors are returned for retry.
func (h *Handler) Handle(ctx context.Context, value []byte) error {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		h.logger.Error("dropping malformed integration event", "error", err)
		return nil
	}
	if msg.TenantID == "" || msg.Type == "" || msg.Title == "" {
		h.logger.Error("dropping incomplete integration event",
			"tenant_id", msg.TenantID,
			"type", msg.Type,
		)
		return nil
	}

	_, err := h.notifier.Create(ctx, &domain.Notification{
		TenantID: msg.TenantID,
		Type:     msg.Type,
		Title:    msg.Title,
		Message:  msg.Message,
		Data:     msg.Data,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			h.logger.Error("dropping invalid integration event", "error", err, "type", msg.Type)
			return nil
		}
		return fmt.Errorf("store integration event: %w", err)
	}

	if h.metrics != nil {
		h.metrics.EventsIngested.Inc()
	}
	return nil
}

// Consumer reads integration events from Kafka and hands them to a Handler.
type Consumer struct {
	config  ConsumerConfig
	reader  *kafka.Reader
	handler *Handler
	logger  *slog.Logger

	wg       sync.WaitGroup
	shutdown chan struct{}
}

func NewConsumer(config ConsumerConfig, handler *Handler, logger *slog.Logger) *Consumer {
	if config.FetchTimeout == 0 {
		config.FetchTimeout = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commits only
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		config:   config,
		reader:   reader,
		handler:  handler,
		logger:   logger,
		shutdown: make(chan struct{}),
	}
}

// Start begins consuming in a background goroutine.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.consumeLoop(ctx)
	c.logger.Info("kafka consumer started",
		"topic", c.config.Topic,
		"group", c.config.GroupID,
	)
}

// Stop gracefully shuts down the consumer.
func (c *Consumer) Stop() {
	close(c.shutdown)
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		c.logger.Error("failed to close kafka reader", "error", err)
	}
	c.logger.Info("kafka consumer stopped")
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.Error("failed to fetch message", "error", err)
			time.Sleep(time.Second)
			continue
		}

		// Retry transient handler failures in place; committing would
		// lose the event.
		for {
			if err := c.handler.Handle(ctx, msg.Value); err == nil {
				break
			} else {
				c.logger.Error("failed to process integration event",
					"error", err,
					"partition", msg.Partition,
					"offset", msg.Offset,
				)
			}

			select {
			case <-ctx.Done():
				return
			case <-c.shutdown:
				return
			case <-time.After(time.Second):
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit offset",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
		}
	}
}
