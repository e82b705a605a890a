package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/HSouheill/scholarfund_backend/config"
	"github.com/HSouheill/scholarfund_backend/models"
)

// Application event types
const (
	EventApplicationSubmitted = "application.submitted"
	EventApplicationVerified  = "application.verified"
	EventApplicationApproved  = "application.approved"
	EventApplicationRejected  = "application.rejected"
	EventApplicationPaid      = "application.paid"
)

// ApplicationEvent is published after each application transition
type ApplicationEvent struct {
	Type          string                   `json:"type"`
	ApplicationID string                   `json:"applicationId"`
	WalletAddress string                   `json:"walletAddress"`
	PoolAddress   string                   `json:"poolAddress"`
	Status        models.ApplicationStatus `json:"status"`
	OccurredAt    time.Time                `json:"occurredAt"`
}

func newApplicationEvent(eventType string, app *models.Application, at time.Time) ApplicationEvent {
	return ApplicationEvent{
		Type:          eventType,
		ApplicationID: app.ID.Hex(),
		WalletAddress: app.WalletAddress,
		PoolAddress:   app.PoolAddress,
		Status:        app.Status,
		OccurredAt:    at,
	}
}

// EventPublisher ships application events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event ApplicationEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ApplicationEvent) error { return nil }

// KafkaPublisher writes events to a Kafka topic keyed by application id
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher returns a Kafka publisher, or a no-op one when no broker
// is configured
func NewEventPublisher(cfg config.KafkaConfig) EventPublisher {
	if cfg.Broker == "" {
		log.Info().Msg("KAFKA_BROKER not set, application events are disabled")
		return NopPublisher{}
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}
		transport.TLS = &tls.Config{}
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Broker),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ApplicationEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ApplicationID),
		Value: value,
		Time:  event.OccurredAt,
	})
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
