// Package session defines the persisted shape of one quiz session and the
// repository contract it is stored through.
package session

import (
	"context"
	"time"

	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
	"github.com/turtacn/BodyMap-Insight/internal/domain/marker"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// Record is everything a session owns: the marker list with its active
// pointer, and the single-form choices.
type Record struct {
	ID        string       `json:"id"`
	Markers   marker.State `json:"markers"`
	Form      form.State   `json:"form"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// New returns a fresh record for layoutID with a default form.
func New(id, layoutID string, now time.Time) Record {
	return Record{
		ID:        id,
		Markers:   marker.State{ID: id, LayoutID: layoutID, Markers: []marker.Marker{}},
		Form:      form.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	c := r
	c.Markers.Markers = make([]marker.Marker, len(r.Markers.Markers))
	for i, m := range r.Markers.Markers {
		c.Markers.Markers[i] = m.Clone()
	}
	return c
}

// Repository stores session records. Get returns an ErrCodeSessionNotFound
// error for unknown or expired ids; Delete of a missing id is not an error.
type Repository interface {
	Get(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	Backend() string
}

// NotFound returns the error repositories use for unknown ids.
func NotFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + id)
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.IsCode(err, errors.ErrCodeSessionNotFound)
}
