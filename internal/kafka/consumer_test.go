package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-rewards/internal/config"
	"github.com/recycle-rewards/internal/domain"
	"github.com/recycle-rewards/internal/service"
)

type recordingHandler struct {
	mu      sync.Mutex
	batches [][]domain.WasteSubmission
}

func (h *recordingHandler) LogWasteBatch(_ context.Context, b domain.BatchWasteSubmission) service.BatchResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, append([]domain.WasteSubmission(nil), b.Submissions...))
	return service.BatchResult{Accepted: len(b.Submissions)}
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func weighIn(t *testing.T, offset int64, w WeighIn) *sarama.ConsumerMessage {
	t.Helper()
	value, err := json.Marshal(w)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Offset: offset, Value: value}
}

func TestDecodeWeighIn(t *testing.T) {
	sub, err := decodeWeighIn([]byte(`{"user_id":"u1","waste_type":"cans","weight":1.5}`))
	require.NoError(t, err)
	assert.Equal(t, domain.WasteSubmission{UserID: "u1", WasteType: "cans", Weight: 1.5, Source: "kafka"}, sub)

	sub, err = decodeWeighIn([]byte(`{"user_id":"u1","waste_type":"cans","weight":1,"source":"bin-7"}`))
	require.NoError(t, err)
	assert.Equal(t, "bin-7", sub.Source)

	for _, raw := range []string{
		`not json`,
		`{"waste_type":"cans","weight":1}`,
		`{"user_id":"u1","weight":1}`,
		`{"user_id":"u1","waste_type":"cans","weight":0}`,
		`{"user_id":"u1","waste_type":"cans","weight":-2}`,
	} {
		_, err := decodeWeighIn([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestConsumeClaim_BatchesAndMarks(t *testing.T) {
	handler := &recordingHandler{}
	h := &consumerGroupHandler{
		config:  &config.KafkaConfig{BatchSize: 2, BatchTimeout: time.Hour},
		handler: handler,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 8)}
	claim.messages <- weighIn(t, 1, WeighIn{UserID: "u1", WasteType: "plastic", Weight: 1})
	claim.messages <- &sarama.ConsumerMessage{Offset: 2, Value: []byte("garbage")}
	claim.messages <- weighIn(t, 3, WeighIn{UserID: "u2", WasteType: "paper", Weight: 2})
	claim.messages <- weighIn(t, 4, WeighIn{UserID: "u3", WasteType: "glass", Weight: 3})
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	require.NoError(t, h.ConsumeClaim(session, claim))

	require.Len(t, handler.batches, 2)
	assert.Len(t, handler.batches[0], 2)
	assert.Equal(t, "u3", handler.batches[1][0].UserID)
	assert.Equal(t, []int64{1, 2, 3, 4}, session.marked)
}

func TestConsumeClaim_FlushesOnTimeout(t *testing.T) {
	handler := &recordingHandler{}
	h := &consumerGroupHandler{
		config:  &config.KafkaConfig{BatchSize: 100, BatchTimeout: 20 * time.Millisecond},
		handler: handler,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- weighIn(t, 7, WeighIn{UserID: "u1", WasteType: "cans", Weight: 1})
	session := &fakeSession{ctx: ctx}

	done := make(chan error, 1)
	go func() { done <- h.ConsumeClaim(session, claim) }()

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.batches) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, []int64{7}, session.marked)
}
