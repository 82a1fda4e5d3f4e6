// Package quiz provides the application-level service for body-map quiz
// sessions. It sits between the HTTP/CLI interfaces and the pure domain
// packages, adding persistence, per-session serialisation, events and metrics.
package quiz

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
	"github.com/turtacn/BodyMap-Insight/internal/domain/marker"
	"github.com/turtacn/BodyMap-Insight/internal/domain/session"
	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/internal/domain/theme"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

const (
	DefaultStorageKey      = "rootHealthDiagnostic"
	DefaultRedirectBaseURL = "https://app.roothealth.app"
)

// Service defines the interface for quiz application operations.
//
// Marker commands never fail for domain reasons: a rejected command (unknown
// region, deselecting the last option, no active marker) returns the
// unchanged session with Applied false. Unknown session ids and explicitly
// named marker ids that do not exist are reported as not-found errors.
type Service interface {
	Layouts(ctx context.Context) []*LayoutSummary
	Classify(ctx context.Context, layoutID string, x, y float64) (*Classification, error)

	CreateSession(ctx context.Context, layoutID string) (*SessionView, error)
	GetSession(ctx context.Context, id string) (*SessionView, error)
	DeleteSession(ctx context.Context, id string) error

	PlaceMarker(ctx context.Context, id string, x, y float64) (*CommandResult, error)
	RemoveMarker(ctx context.Context, id, markerID string) (*CommandResult, error)
	ClearMarkers(ctx context.Context, id string) (*CommandResult, error)
	SetActive(ctx context.Context, id, markerID string) (*CommandResult, error)
	OverrideRegion(ctx context.Context, id, markerID, regionID string) (*CommandResult, error)
	ToggleOption(ctx context.Context, id, markerID, optionID string) (*CommandResult, error)
	Themes(ctx context.Context, id string) ([]theme.Theme, error)

	UpdateForm(ctx context.Context, id string, sel form.Selection) (*FormUpdate, error)
	Analyze(ctx context.Context, id string) (*Analysis, error)
	AnalyzeForm(ctx context.Context, id, mode string) (*Analysis, error)

	Snapshot(ctx context.Context, id string) (*snapshot.Snapshot, error)
	ContinueURL(ctx context.Context, id string) (string, error)
}

// LayoutSummary describes one registered layout.
type LayoutSummary struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Default bool             `json:"default"`
	Regions []anatomy.Region `json:"regions"`
}

// Classification is a classified point with the option list a marker placed
// there would start with.
type Classification struct {
	LayoutID string                    `json:"layout_id"`
	X        float64                   `json:"x"`
	Y        float64                   `json:"y"`
	Region   anatomy.Region            `json:"region"`
	Side     anatomy.Side              `json:"side"`
	Options  []anatomy.StructureOption `json:"options"`
}

// SessionView is the read model of a session. Themes are recomputed from the
// markers on every read.
type SessionView struct {
	ID        string          `json:"id"`
	LayoutID  string          `json:"layout_id"`
	Markers   []marker.Marker `json:"markers"`
	ActiveID  string          `json:"active_id,omitempty"`
	Themes    []theme.Theme   `json:"themes"`
	Form      form.State      `json:"form"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CommandResult is returned by every marker command.
type CommandResult struct {
	Session *SessionView   `json:"session"`
	Applied bool           `json:"applied"`
	Marker  *marker.Marker `json:"marker,omitempty"`
}

// FormUpdate is the form after a batch of selections and the fields that were
// rejected.
type FormUpdate struct {
	Form    form.State `json:"form"`
	Ignored []string   `json:"ignored,omitempty"`
}

// Analysis is the outcome of an analyze action together with the snapshot
// that was stored for it.
type Analysis struct {
	SessionID  string            `json:"session_id"`
	Mode       string            `json:"mode"`
	StorageKey string            `json:"storage_key"`
	Themes     []theme.Theme     `json:"themes,omitempty"`
	Insight    interface{}       `json:"insight,omitempty"`
	Snapshot   snapshot.Snapshot `json:"snapshot"`
}

// Option configures the service.
type Option func(*serviceImpl)

// WithPublisher enables insight events.
func WithPublisher(p EventPublisher) Option {
	return func(s *serviceImpl) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithMetrics records service metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the session and marker id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *serviceImpl) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithStorageKey sets the snapshot key prefix.
func WithStorageKey(key string) Option {
	return func(s *serviceImpl) {
		if key != "" {
			s.storageKey = key
		}
	}
}

// WithSharedSnapshotKey stores every snapshot under the bare storage key, so
// the last analysis of any session replaces the previous one.
func WithSharedSnapshotKey() Option {
	return func(s *serviceImpl) { s.sharedKey = true }
}

// WithLocker replaces the in-process per-session lock.
func WithLocker(l Locker) Option {
	return func(s *serviceImpl) {
		if l != nil {
			s.locks = l
		}
	}
}

// WithRedirectBaseURL sets the continue target.
func WithRedirectBaseURL(base string) Option {
	return func(s *serviceImpl) {
		if base != "" {
			s.redirectBase = base
		}
	}
}

// serviceImpl implements the Service interface.
type serviceImpl struct {
	layouts   *anatomy.Registry
	sessions  session.Repository
	snapshots snapshot.Store
	publisher EventPublisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger

	now          func() time.Time
	newID        func() string
	storageKey   string
	sharedKey    bool
	redirectBase string

	locks Locker
	// live is sessions created minus sessions deleted through this replica.
	// Sessions that expire by repository TTL or are served by another
	// replica are not reflected.
	live atomic.Int64
}

// NewService creates a new quiz application service.
func NewService(layouts *anatomy.Registry, sessions session.Repository, snapshots snapshot.Store, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		layouts:      layouts,
		sessions:     sessions,
		snapshots:    snapshots,
		publisher:    NopPublisher(),
		logger:       logger.Named("quiz"),
		now:          time.Now,
		newID:        uuid.NewString,
		storageKey:   DefaultStorageKey,
		redirectBase: DefaultRedirectBaseURL,
		locks:        newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) Layouts(_ context.Context) []*LayoutSummary {
	def := s.layouts.DefaultID()
	list := s.layouts.List()
	out := make([]*LayoutSummary, 0, len(list))
	for _, l := range list {
		out = append(out, &LayoutSummary{
			ID:      l.ID,
			Name:    l.Name,
			Default: l.ID == def,
			Regions: append([]anatomy.Region(nil), l.Regions...),
		})
	}
	return out
}

func (s *serviceImpl) Classify(_ context.Context, layoutID string, x, y float64) (*Classification, error) {
	layout, err := s.layouts.Get(layoutID)
	if err != nil {
		return nil, err
	}
	c := layout.Classify(x, y)
	return &Classification{
		LayoutID: layout.ID,
		X:        x,
		Y:        y,
		Region:   c.Region,
		Side:     c.Side,
		Options:  layout.OptionsFor(c.Region.ID, c.Side),
	}, nil
}

func (s *serviceImpl) CreateSession(ctx context.Context, layoutID string) (*SessionView, error) {
	layout, err := s.layouts.Get(layoutID)
	if err != nil {
		return nil, err
	}

	rec := session.New(s.newID(), layout.ID, s.now().UTC())
	if err := s.sessions.Save(ctx, rec); err != nil {
		s.logger.Error("failed to save session", logging.String(logging.FieldSessionID, rec.ID), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "save session")
	}

	prometheus.RecordSessionCreated(s.metrics, layout.ID)
	prometheus.SetActiveSessions(s.metrics, s.sessions.Backend(), int(s.live.Add(1)))
	s.logger.Info("session created",
		logging.String(logging.FieldSessionID, rec.ID),
		logging.String(logging.FieldLayoutID, layout.ID))

	return s.view(marker.Restore(layout, rec.Markers), rec), nil
}

func (s *serviceImpl) GetSession(ctx context.Context, id string) (*SessionView, error) {
	rec, sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(sess, rec), nil
}

func (s *serviceImpl) DeleteSession(ctx context.Context, id string) error {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.sessions.Get(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete session")
	}

	n := s.live.Add(-1)
	if n < 0 {
		s.live.Store(0)
		n = 0
	}
	prometheus.SetActiveSessions(s.metrics, s.sessions.Backend(), int(n))
	s.logger.Info("session deleted", logging.String(logging.FieldSessionID, id))
	return nil
}

func (s *serviceImpl) PlaceMarker(ctx context.Context, id string, x, y float64) (*CommandResult, error) {
	var placed marker.Marker
	res, err := s.mutate(ctx, id, "place_marker", func(sess *marker.Session, _ *session.Record) (bool, error) {
		placed = sess.AddMarker(x, y)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	prometheus.RecordMarkerPlaced(s.metrics, res.Session.LayoutID, placed.Region.ID)
	res.Marker = &placed
	return res, nil
}

func (s *serviceImpl) RemoveMarker(ctx context.Context, id, markerID string) (*CommandResult, error) {
	return s.mutate(ctx, id, "remove_marker", func(sess *marker.Session, _ *session.Record) (bool, error) {
		if err := requireMarker(sess, markerID); err != nil {
			return false, err
		}
		return sess.RemoveMarker(markerID), nil
	})
}

func (s *serviceImpl) ClearMarkers(ctx context.Context, id string) (*CommandResult, error) {
	return s.mutate(ctx, id, "clear_markers", func(sess *marker.Session, _ *session.Record) (bool, error) {
		sess.ClearAll()
		return true, nil
	})
}

func (s *serviceImpl) SetActive(ctx context.Context, id, markerID string) (*CommandResult, error) {
	return s.mutate(ctx, id, "set_active", func(sess *marker.Session, _ *session.Record) (bool, error) {
		if err := requireMarker(sess, markerID); err != nil {
			return false, err
		}
		return sess.SetActive(markerID), nil
	})
}

func (s *serviceImpl) OverrideRegion(ctx context.Context, id, markerID, regionID string) (*CommandResult, error) {
	return s.mutate(ctx, id, "override_region", func(sess *marker.Session, _ *session.Record) (bool, error) {
		if markerID != "" {
			if err := requireMarker(sess, markerID); err != nil {
				return false, err
			}
		}
		return sess.OverrideRegion(markerID, regionID), nil
	})
}

func (s *serviceImpl) ToggleOption(ctx context.Context, id, markerID, optionID string) (*CommandResult, error) {
	return s.mutate(ctx, id, "toggle_option", func(sess *marker.Session, _ *session.Record) (bool, error) {
		if markerID != "" {
			if err := requireMarker(sess, markerID); err != nil {
				return false, err
			}
		}
		return sess.ToggleOption(markerID, optionID), nil
	})
}

func (s *serviceImpl) Themes(ctx context.Context, id string) ([]theme.Theme, error) {
	_, sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return theme.Summarize(sess.Markers()), nil
}

func (s *serviceImpl) UpdateForm(ctx context.Context, id string, sel form.Selection) (*FormUpdate, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ignored := rec.Form.Apply(sel, sess.Layout())
	rec.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	if len(ignored) > 0 {
		s.logger.Debug("form selections ignored",
			logging.String(logging.FieldSessionID, id),
			logging.Any("fields", ignored))
	}
	return &FormUpdate{Form: rec.Form, Ignored: ignored}, nil
}

func (s *serviceImpl) Analyze(ctx context.Context, id string) (*Analysis, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	_, sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, themes, err := ThemeSnapshot(sess.State(), s.now())
	if err != nil {
		return nil, err
	}
	key, err := s.persist(ctx, id, snap)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(themes))
	for i, t := range themes {
		ids[i] = t.ID
	}
	prometheus.RecordAnalysis(s.metrics, ModeThemes, time.Since(start), ids...)
	logging.LogOperationDuration(s.logger, "analyze", start,
		logging.String(logging.FieldSessionID, id),
		logging.Int("markers", sess.Len()),
		logging.Int("themes", len(themes)))

	return &Analysis{SessionID: id, Mode: ModeThemes, StorageKey: key, Themes: themes, Snapshot: snap}, nil
}

func (s *serviceImpl) AnalyzeForm(ctx context.Context, id, mode string) (*Analysis, error) {
	if mode == "" {
		mode = theme.ModeSystem
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()
	rec, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, insight, err := FormSnapshot(rec.Form, mode, s.now())
	if err != nil {
		return nil, err
	}
	key, err := s.persist(ctx, id, snap)
	if err != nil {
		return nil, err
	}

	prometheus.RecordAnalysis(s.metrics, mode, time.Since(start))
	logging.LogOperationDuration(s.logger, "analyze_form", start,
		logging.String(logging.FieldSessionID, id),
		logging.String("mode", mode))

	return &Analysis{SessionID: id, Mode: mode, StorageKey: key, Insight: insight, Snapshot: snap}, nil
}

func (s *serviceImpl) Snapshot(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	key := s.snapshotKey(id)
	start := time.Now()
	snap, err := s.snapshots.Load(ctx, key)
	prometheus.RecordSnapshotOp(s.metrics, snapshot.BackendName(s.snapshots), "load", time.Since(start), ignoreNotFound(err))
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *serviceImpl) snapshotKey(id string) string {
	if s.sharedKey {
		return s.storageKey
	}
	return StorageKey(s.storageKey, id)
}

func (s *serviceImpl) ContinueURL(ctx context.Context, id string) (string, error) {
	var raw []byte
	snap, err := s.Snapshot(ctx, id)
	switch {
	case err == nil:
		if raw, err = snap.Encode(); err != nil {
			return "", err
		}
	case !snapshot.IsNotFound(err):
		return "", err
	}
	return snapshot.RedirectURL(s.redirectBase, raw)
}

// mutate runs fn against the restored session under the session lock and
// saves the record when fn reports a change.
func (s *serviceImpl) mutate(ctx context.Context, id, command string, fn func(*marker.Session, *session.Record) (bool, error)) (*CommandResult, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applied, err := fn(sess, &rec)
	if err != nil {
		return nil, err
	}
	prometheus.RecordCommand(s.metrics, command, applied)

	if applied {
		rec.Markers = sess.State()
		rec.UpdatedAt = s.now().UTC()
		if err := s.save(ctx, rec); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("marker command",
		logging.String(logging.FieldSessionID, id),
		logging.String("command", command),
		logging.Bool("applied", applied))

	return &CommandResult{Session: s.view(sess, rec), Applied: applied}, nil
}

func (s *serviceImpl) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "lock session").WithDetail("id=" + id)
	}
	return unlock, nil
}

// load fetches a record and restores its marker session. A layout that has
// disappeared since the record was written falls back to the default layout.
func (s *serviceImpl) load(ctx context.Context, id string) (session.Record, *marker.Session, error) {
	rec, err := s.sessions.Get(ctx, id)
	if err != nil {
		if !session.IsNotFound(err) {
			err = errors.Wrap(err, errors.ErrCodeStorageError, "load session")
		}
		return session.Record{}, nil, err
	}

	layout, err := s.layouts.Get(rec.Markers.LayoutID)
	if err != nil {
		s.logger.Warn("session layout missing, using default",
			logging.String(logging.FieldSessionID, id),
			logging.String(logging.FieldLayoutID, rec.Markers.LayoutID))
		layout = s.layouts.Default()
	}
	rec.Markers.ID = rec.ID
	return rec, marker.Restore(layout, rec.Markers, marker.WithIDGenerator(s.newID)), nil
}

func (s *serviceImpl) save(ctx context.Context, rec session.Record) error {
	if err := s.sessions.Save(ctx, rec); err != nil {
		s.logger.Error("failed to save session", logging.String(logging.FieldSessionID, rec.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeStorageError, "save session")
	}
	return nil
}

// persist writes snap under the session key and publishes it. Publish
// failures are logged only.
func (s *serviceImpl) persist(ctx context.Context, id string, snap snapshot.Snapshot) (string, error) {
	key := s.snapshotKey(id)
	backend := snapshot.BackendName(s.snapshots)

	start := time.Now()
	err := s.snapshots.Save(ctx, key, snap)
	prometheus.RecordSnapshotOp(s.metrics, backend, "save", time.Since(start), err)
	if err != nil {
		s.logger.Error("failed to save snapshot",
			logging.String(logging.FieldSessionID, id),
			logging.String("backend", backend),
			logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "save snapshot").WithDetail("key=" + key)
	}

	if _, nop := s.publisher.(nopPublisher); nop {
		return key, nil
	}
	payload, err := snap.Encode()
	if err == nil {
		err = s.publisher.Publish(ctx, id, payload)
	}
	prometheus.RecordEventPublish(s.metrics, s.publisher.Topic(), err)
	if err != nil {
		s.logger.Warn("failed to publish insight event",
			logging.String(logging.FieldSessionID, id),
			logging.String("topic", s.publisher.Topic()),
			logging.Err(err))
	}
	return key, nil
}

func (s *serviceImpl) view(sess *marker.Session, rec session.Record) *SessionView {
	markers := sess.Markers()
	return &SessionView{
		ID:        rec.ID,
		LayoutID:  sess.Layout().ID,
		Markers:   markers,
		ActiveID:  sess.ActiveID(),
		Themes:    theme.Summarize(markers),
		Form:      rec.Form,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func requireMarker(sess *marker.Session, markerID string) error {
	if _, ok := sess.Marker(markerID); !ok {
		return errors.New(errors.ErrCodeMarkerNotFound, "marker not found").WithDetail("id=" + markerID)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if snapshot.IsNotFound(err) {
		return nil
	}
	return err
}
