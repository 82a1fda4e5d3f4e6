package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/BodyMap-Insight/pkg/errors"
)

const (
	TopicInsightAnalyzed = "insight.analyzed"

	DefaultSource = "bodymap-insight"
	SchemaVersion = "v1"

	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderSource        = "source_service"
	HeaderSchemaVersion = "schema_version"
)

// EventTypeFor maps a topic to its event type; topics are named after events.
func EventTypeFor(topic string) string {
	return strings.ReplaceAll(topic, ".", "_")
}

// EventHeaders builds the standard header set of an event message.
func EventHeaders(eventID, eventType, source string) []kafka.Header {
	return []kafka.Header{
		{Key: HeaderEventID, Value: []byte(eventID)},
		{Key: HeaderEventType, Value: []byte(eventType)},
		{Key: HeaderSource, Value: []byte(source)},
		{Key: HeaderSchemaVersion, Value: []byte(SchemaVersion)},
	}
}

// HeaderValue returns the first header named key, or "".
func HeaderValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	Close() error
}

// TopicManager creates topics through a broker connection.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, pkgerrors.New(pkgerrors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeExternalService, "failed to dial kafka")
	}
	return newTopicManagerWithConn(conn, logger), nil
}

func newTopicManagerWithConn(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger}
}

// EnsureTopic creates cfg.Name; an existing topic is not an error.
func (m *TopicManager) EnsureTopic(_ context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return pkgerrors.New(pkgerrors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return pkgerrors.New(pkgerrors.ErrCodeValidation, "NumPartitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return pkgerrors.New(pkgerrors.ErrCodeValidation, "ReplicationFactor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if errors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeExternalService, "failed to create topic").WithDetail(cfg.Name)
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}
