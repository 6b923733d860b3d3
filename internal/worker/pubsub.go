package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the subscription.
const (
	JobCacheWarm   = "cache_warm"
	JobHealthCheck = "health_check"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *Processor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	WarmJob          *WarmJob
	Logger           zerolog.Logger
}

// JobMessage is the payload of a worker job.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Cities overrides the configured warm list for a cache_warm job.
	Cities []string `json:"cities,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        NewProcessor(cfg.WarmJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start blocks receiving messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if h.processor.Handle(logger.WithContext(ctx), msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Processor executes decoded job messages. It is transport independent.
type Processor struct {
	warmJob *WarmJob
	logger  zerolog.Logger
}

// NewProcessor creates a processor backed by job.
func NewProcessor(job *WarmJob, logger zerolog.Logger) *Processor {
	return &Processor{warmJob: job, logger: logger}
}

// Handle runs the job in data and reports whether the message should be
// acknowledged. Malformed payloads are nacked; unknown job types are acked
// so they are not redelivered.
func (p *Processor) Handle(ctx context.Context, data []byte) bool {
	startTime := time.Now()
	logger := p.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}

	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return false
	}

	var err error
	switch msg.JobType {
	case JobCacheWarm:
		err = p.cacheWarm(ctx, msg)
	case JobHealthCheck:
		err = p.healthCheck(ctx)
	default:
		logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return true
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}

func (p *Processor) cacheWarm(ctx context.Context, msg JobMessage) error {
	var result *WarmResult
	if len(msg.Cities) > 0 {
		result = p.warmJob.RunCities(ctx, msg.Cities)
	} else {
		result = p.warmJob.Run(ctx)
	}

	// Partial failure is tolerated while most cities succeed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many warm failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}

// healthCheck fetches the first configured city fresh to prove a provider answers.
func (p *Processor) healthCheck(ctx context.Context) error {
	cities := p.warmJob.Cities()
	if len(cities) == 0 {
		return fmt.Errorf("health check: no cities configured")
	}

	result := p.warmJob.RunCities(ctx, cities[:1])
	if result.Successful == 0 {
		if len(result.Errors) > 0 {
			return fmt.Errorf("health check failed for %s: %s", cities[0], result.Errors[0].Error)
		}
		return fmt.Errorf("health check for %s did not run: %w", cities[0], ctx.Err())
	}
	return nil
}
