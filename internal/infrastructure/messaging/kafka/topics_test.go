package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/BodyMap-Insight/pkg/errors"
)

type mockConn struct {
	created []kafka.TopicConfig
	err     error
}

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	return m.err
}

func (m *mockConn) Close() error { return nil }

func TestEnsureTopic(t *testing.T) {
	conn := &mockConn{}
	m := newTopicManagerWithConn(conn, nil)

	require.NoError(t, m.EnsureTopic(context.Background(), TopicConfig{
		Name: TopicInsightAnalyzed, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 86_400_000,
	}))
	require.Len(t, conn.created, 1)
	assert.Equal(t, 3, conn.created[0].NumPartitions)
	assert.Equal(t, []kafka.ConfigEntry{{ConfigName: "retention.ms", ConfigValue: "86400000"}}, conn.created[0].ConfigEntries)
}

func TestEnsureTopic_AlreadyExists(t *testing.T) {
	m := newTopicManagerWithConn(&mockConn{err: fmt.Errorf("create: %w", kafka.TopicAlreadyExists)}, nil)
	assert.NoError(t, m.EnsureTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestEnsureTopic_Errors(t *testing.T) {
	m := newTopicManagerWithConn(&mockConn{err: errors.New("not controller")}, nil)
	ctx := context.Background()

	assert.True(t, pkgerrors.IsCode(m.EnsureTopic(ctx, TopicConfig{}), pkgerrors.ErrCodeValidation))
	assert.True(t, pkgerrors.IsCode(m.EnsureTopic(ctx, TopicConfig{Name: "t"}), pkgerrors.ErrCodeValidation))
	assert.True(t, pkgerrors.IsCode(m.EnsureTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1}), pkgerrors.ErrCodeValidation))
	assert.True(t, pkgerrors.IsCode(m.EnsureTopic(ctx, TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}), pkgerrors.ErrCodeExternalService))
}

func TestEventTypeFor(t *testing.T) {
	assert.Equal(t, "insight_analyzed", EventTypeFor(TopicInsightAnalyzed))
}
