package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/BodyMap-Insight/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closes    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closes++
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

func newTestProducer(w WriterInterface) *Producer {
	p := newProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, nil)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestNewProducer_Defaults(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Acks: "all"}, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, TopicInsightAnalyzed, p.Topic())
	w := p.writer.(*kafka.Writer)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, 4, w.MaxAttempts)
	assert.Equal(t, TopicInsightAnalyzed, w.Topic)
}

func TestPublish_Success(t *testing.T) {
	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(_ context.Context, msgs ...kafka.Message) error {
		captured = append(captured, msgs...)
		return nil
	}})

	require.NoError(t, p.Publish(context.Background(), "s1", []byte(`{"savedAt":"x"}`)))
	require.Len(t, captured, 1)

	msg := captured[0]
	assert.Equal(t, "s1", string(msg.Key))
	assert.JSONEq(t, `{"savedAt":"x"}`, string(msg.Value))
	assert.Equal(t, "insight_analyzed", HeaderValue(msg, HeaderEventType))
	assert.Equal(t, DefaultSource, HeaderValue(msg, HeaderSource))
	assert.Equal(t, SchemaVersion, HeaderValue(msg, HeaderSchemaVersion))
	assert.Len(t, HeaderValue(msg, HeaderEventID), 36)
	assert.Equal(t, "2026-03-01T12:00:00Z", msg.Time.Format(time.RFC3339))

	sent, failed, bytes := p.GetMetrics()
	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(0), failed)
	assert.Equal(t, int64(15), bytes)
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	p.config.MaxMessageBytes = 4

	err := p.Publish(context.Background(), "s1", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	err = p.Publish(context.Background(), "s1", []byte("12345"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestPublish_WriteError(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error {
		return errors.New("leader not available")
	}})

	err := p.Publish(context.Background(), "s1", []byte("{}"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))

	_, failed, _ := p.GetMetrics()
	assert.Equal(t, int64(1), failed)
}

func TestClose_Idempotent(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closes)
	assert.Equal(t, ErrProducerClosed, p.Publish(context.Background(), "s1", []byte("{}")))
}
