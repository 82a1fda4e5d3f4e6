// Package snapshot defines the point-in-time record written on every analyze
// action, the key/value Store it is written to, and the redirect URL that
// forwards it to the external intake application.
package snapshot

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// TimeFormat is ISO-8601 UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Snapshot is {input, insight|result, savedAt}. Exactly one of Insight and
// Result is set: Insight for single-form analysis, Result for multi-marker
// themes. The payloads are raw JSON so the stored value never aliases live
// state.
type Snapshot struct {
	Input   json.RawMessage `json:"input"`
	Insight json.RawMessage `json:"insight,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	SavedAt string          `json:"savedAt"`
}

// NewInsight marshals input and insight immediately.
func NewInsight(input, insight interface{}, now time.Time) (Snapshot, error) {
	in, err := marshal(input)
	if err != nil {
		return Snapshot{}, err
	}
	out, err := marshal(insight)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Input: in, Insight: out, SavedAt: FormatTime(now)}, nil
}

// NewResult marshals input and result immediately.
func NewResult(input, result interface{}, now time.Time) (Snapshot, error) {
	in, err := marshal(input)
	if err != nil {
		return Snapshot{}, err
	}
	out, err := marshal(result)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Input: in, Result: out, SavedAt: FormatTime(now)}, nil
}

func marshal(v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal snapshot payload")
	}
	return b, nil
}

// FormatTime renders t in TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// Encode returns the stored JSON form of s.
func (s Snapshot) Encode() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode snapshot")
	}
	return b, nil
}

// Decode parses a stored snapshot.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrap(err, errors.ErrCodeSerialization, "decode snapshot")
	}
	return s, nil
}

// Store keeps one snapshot per key; Save overwrites (last write wins).
type Store interface {
	Save(ctx context.Context, key string, s Snapshot) error
	Load(ctx context.Context, key string) (Snapshot, error)
	Delete(ctx context.Context, key string) error
}

// BackendName returns the Backend() of s when it has one, "custom" otherwise.
func BackendName(s Store) string {
	if b, ok := s.(interface{ Backend() string }); ok {
		return b.Backend()
	}
	return "custom"
}

// ErrNotFound is returned by Load when nothing has been saved under a key.
var ErrNotFound = errors.New(errors.ErrCodeSnapshotNotFound, "no saved snapshot")

// NotFound returns ErrNotFound annotated with key.
func NotFound(key string) error {
	return errors.Wrap(ErrNotFound, errors.ErrCodeSnapshotNotFound, "no saved snapshot").WithDetail("key=" + key)
}

// IsNotFound reports whether err means no snapshot is stored.
func IsNotFound(err error) bool {
	return errors.IsCode(err, errors.ErrCodeSnapshotNotFound)
}

// componentReplacer turns url.QueryEscape output into encodeURIComponent
// output: spaces as %20 and the marks !'()* left literal.
var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s like encodeURIComponent.
func EncodeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}

// RedirectURL appends raw (the stored JSON, or "{}" when empty) to base as
// the "data" query parameter, keeping any existing query parameters.
func RedirectURL(base string, raw []byte) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "parse redirect base url").WithDetail(base)
	}
	data := string(raw)
	if data == "" {
		data = "{}"
	}
	encoded := EncodeComponent(data)

	query := u.RawQuery
	if query != "" {
		query += "&"
	}
	u.RawQuery = query + "data=" + encoded
	return u.String(), nil
}
