package redis

import (
	"context"
	"time"

	"github.com/turtacn/BodyMap-Insight/internal/domain/session"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
)

const sessionPrefix = "bodymap:session:"

// SessionRepository stores session records as JSON. Every save refreshes the
// ttl, so idle sessions expire ttl after their last command.
type SessionRepository struct {
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

var _ session.Repository = (*SessionRepository)(nil)

func NewSessionRepository(client *Client, ttl time.Duration, log logging.Logger) *SessionRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SessionRepository{
		cache:  NewRedisCache(client, log, WithPrefix(sessionPrefix)),
		ttl:    ttl,
		logger: log,
	}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (session.Record, error) {
	var rec session.Record
	if err := r.cache.Get(ctx, id, &rec); err != nil {
		if err == ErrCacheMiss {
			return session.Record{}, session.NotFound(id)
		}
		return session.Record{}, err
	}
	return rec, nil
}

func (r *SessionRepository) Save(ctx context.Context, rec session.Record) error {
	return r.cache.Set(ctx, rec.ID, rec, r.ttl)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.cache.Delete(ctx, id)
}

func (r *SessionRepository) Backend() string { return "redis" }
