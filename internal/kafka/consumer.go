// Package kafka ingests weigh-ins from collection points.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/recycle-rewards/internal/config"
	"github.com/recycle-rewards/internal/domain"
	"github.com/recycle-rewards/internal/service"
)

// WeighInHandler credits batches of weigh-ins
type WeighInHandler interface {
	LogWasteBatch(ctx context.Context, batch domain.BatchWasteSubmission) service.BatchResult
}

// WeighIn is the message a collection point publishes for every weighed bag
type WeighIn struct {
	UserID    string  `json:"user_id"`
	WasteType string  `json:"waste_type"`
	Weight    float64 `json:"weight"`
	Source    string  `json:"source,omitempty"`
}

const defaultSource = "kafka"

var errInvalidWeighIn = errors.New("invalid weigh-in")

// decodeWeighIn parses and checks a message. Catalog checks happen in the service.
func decodeWeighIn(value []byte) (domain.WasteSubmission, error) {
	var msg WeighIn
	if err := json.Unmarshal(value, &msg); err != nil {
		return domain.WasteSubmission{}, fmt.Errorf("unmarshaling weigh-in: %w", err)
	}
	if msg.UserID == "" || msg.WasteType == "" {
		return domain.WasteSubmission{}, fmt.Errorf("%w: user_id and waste_type are required", errInvalidWeighIn)
	}
	if msg.Weight <= 0 || math.IsNaN(msg.Weight) || math.IsInf(msg.Weight, 0) {
		return domain.WasteSubmission{}, fmt.Errorf("%w: weight %v", errInvalidWeighIn, msg.Weight)
	}
	if msg.Source == "" {
		msg.Source = defaultSource
	}
	return domain.WasteSubmission{
		UserID:    msg.UserID,
		WasteType: msg.WasteType,
		Weight:    msg.Weight,
		Source:    msg.Source,
	}, nil
}

// Consumer consumes weigh-in messages from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	handler       WeighInHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler WeighInHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true
	if cfg.RetryAttempts > 0 {
		saramaConfig.Metadata.Retry.Max = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		saramaConfig.Consumer.Retry.Backoff = cfg.RetryDelay
		saramaConfig.Metadata.Retry.Backoff = cfg.RetryDelay
	}

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				config:  c.config,
				handler: c.handler,
				logger:  c.logger,
				ready:   c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			// Check if context was cancelled
			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	// Wait until consumer is ready
	select {
	case <-c.ready:
		c.logger.Info("kafka consumer ready")
	case <-c.ctx.Done():
		return c.ctx.Err()
	}

	// Handle errors in separate goroutine
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	config  *config.KafkaConfig
	handler WeighInHandler
	logger  *slog.Logger
	ready   chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	if h.ready != nil {
		close(h.ready)
	}
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim collects weigh-ins into batches, flushing on size or timeout.
// Messages are marked only after their batch was handed to the service.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	batchSize := max(h.config.BatchSize, 1)
	batchTimeout := h.config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	batch := make([]domain.WasteSubmission, 0, batchSize)
	var pending []*sarama.ConsumerMessage
	batchTimer := time.NewTimer(batchTimeout)
	defer batchTimer.Stop()

	processBatch := func() {
		if len(pending) == 0 {
			return
		}

		if len(batch) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			res := h.handler.LogWasteBatch(ctx, domain.BatchWasteSubmission{Submissions: batch})
			cancel()
			h.logger.Debug("processed weigh-in batch",
				"batch_size", len(batch),
				"accepted", res.Accepted,
				"rejected", res.Rejected,
			)
		}

		for _, msg := range pending {
			session.MarkMessage(msg, "")
		}
		batch = batch[:0]
		pending = pending[:0]
	}

	for {
		select {
		case <-session.Context().Done():
			// Process remaining batch before exit
			processBatch()
			return nil

		case <-batchTimer.C:
			processBatch()
			batchTimer.Reset(batchTimeout)

		case message, ok := <-claim.Messages():
			if !ok {
				processBatch()
				return nil
			}

			pending = append(pending, message)
			sub, err := decodeWeighIn(message.Value)
			if err != nil {
				h.logger.Warn("skipping weigh-in",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				continue
			}

			batch = append(batch, sub)
			if len(batch) >= batchSize {
				processBatch()
				batchTimer.Reset(batchTimeout)
			}
		}
	}
}
