package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func sessionPath(id string, parts ...string) string {
	p := apiPrefix + "/sessions/" + url.PathEscape(id)
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

// Health calls the liveness probe.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/healthz", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Layouts lists the body diagram layouts.
func (c *Client) Layouts(ctx context.Context) ([]LayoutSummary, error) {
	var out []LayoutSummary
	if err := c.get(ctx, apiPrefix+"/layouts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Classify maps a normalized point to a region and side of layoutID.
func (c *Client) Classify(ctx context.Context, layoutID string, x, y float64) (*Classification, error) {
	q := url.Values{}
	q.Set("x", strconv.FormatFloat(x, 'f', -1, 64))
	q.Set("y", strconv.FormatFloat(y, 'f', -1, 64))

	var out Classification
	if err := c.get(ctx, apiPrefix+"/layouts/"+url.PathEscape(layoutID)+"/classify", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Vocabulary returns the allowed form values.
func (c *Client) Vocabulary(ctx context.Context) (*Vocabulary, error) {
	var out Vocabulary
	if err := c.get(ctx, apiPrefix+"/vocabulary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession starts a session on layoutID, or on the server default when
// layoutID is empty.
func (c *Client) CreateSession(ctx context.Context, layoutID string) (*Session, error) {
	var out Session
	body := struct {
		Layout string `json:"layout,omitempty"`
	}{Layout: layoutID}
	if err := c.post(ctx, apiPrefix+"/sessions", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches a session.
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var out Session
	if err := c.get(ctx, sessionPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession ends a session. Saved snapshots are kept.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.delete(ctx, sessionPath(id), nil)
}

// PlaceMarker drops a dot at (x, y). The new marker becomes active.
func (c *Client) PlaceMarker(ctx context.Context, sessionID string, x, y float64) (*CommandResult, error) {
	body := struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}{X: x, Y: y}
	return c.command(ctx, http.MethodPost, sessionPath(sessionID, "markers"), body)
}

// ClearMarkers removes every marker.
func (c *Client) ClearMarkers(ctx context.Context, sessionID string) (*CommandResult, error) {
	return c.command(ctx, http.MethodDelete, sessionPath(sessionID, "markers"), nil)
}

// RemoveMarker removes one marker.
func (c *Client) RemoveMarker(ctx context.Context, sessionID, markerID string) (*CommandResult, error) {
	return c.command(ctx, http.MethodDelete, sessionPath(sessionID, "markers", url.PathEscape(markerID)), nil)
}

// SetActive makes markerID the active marker.
func (c *Client) SetActive(ctx context.Context, sessionID, markerID string) (*CommandResult, error) {
	body := struct {
		MarkerID string `json:"marker_id"`
	}{MarkerID: markerID}
	return c.command(ctx, http.MethodPut, sessionPath(sessionID, "active"), body)
}

// OverrideRegion moves a marker to another region and resets its options.
func (c *Client) OverrideRegion(ctx context.Context, sessionID, markerID, regionID string) (*CommandResult, error) {
	body := struct {
		RegionID string `json:"region_id"`
	}{RegionID: regionID}
	return c.command(ctx, http.MethodPut, sessionPath(sessionID, "markers", url.PathEscape(markerID), "region"), body)
}

// ToggleOption flips one structure option of a marker. Toggling off the last
// selected option reports Applied false.
func (c *Client) ToggleOption(ctx context.Context, sessionID, markerID, optionID string) (*CommandResult, error) {
	path := sessionPath(sessionID, "markers", url.PathEscape(markerID), "options", url.PathEscape(optionID), "toggle")
	return c.command(ctx, http.MethodPost, path, nil)
}

func (c *Client) command(ctx context.Context, method, path string, body interface{}) (*CommandResult, error) {
	var out CommandResult
	if err := c.do(ctx, request{method: method, path: path, body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Themes returns the live themes of a session.
func (c *Client) Themes(ctx context.Context, sessionID string) ([]Theme, error) {
	var out []Theme
	if err := c.get(ctx, sessionPath(sessionID, "themes"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateForm applies a partial single-form selection.
func (c *Client) UpdateForm(ctx context.Context, sessionID string, sel FormSelection) (*FormUpdate, error) {
	var out FormUpdate
	if err := c.put(ctx, sessionPath(sessionID, "form"), sel, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze turns the markers into themes and stores a snapshot.
func (c *Client) Analyze(ctx context.Context, sessionID string) (*Analysis, error) {
	var out Analysis
	if err := c.post(ctx, sessionPath(sessionID, "analyze"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeForm analyzes the single form in mode (ModeSystem or ModeRule) and
// stores a snapshot. An empty mode uses the server default.
func (c *Client) AnalyzeForm(ctx context.Context, sessionID, mode string) (*Analysis, error) {
	var q url.Values
	if mode != "" {
		q = url.Values{"mode": {mode}}
	}
	var out Analysis
	req := request{method: http.MethodPost, path: sessionPath(sessionID, "form", "analyze"), query: q}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Snapshot returns the record saved by the last analysis.
func (c *Client) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	var out Snapshot
	if err := c.get(ctx, sessionPath(sessionID, "snapshot"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContinueURL returns the intake redirect URL carrying the saved snapshot.
func (c *Client) ContinueURL(ctx context.Context, sessionID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.get(ctx, sessionPath(sessionID, "continue"), nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// InsightHTML returns the rendered insight page of the saved snapshot.
func (c *Client) InsightHTML(ctx context.Context, sessionID string) ([]byte, error) {
	var out []byte
	req := request{method: http.MethodGet, path: sessionPath(sessionID, "insight.html"), accept: "text/html"}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DiagramSVG returns the body diagram with the session's markers drawn on it.
func (c *Client) DiagramSVG(ctx context.Context, sessionID string) ([]byte, error) {
	var out []byte
	req := request{method: http.MethodGet, path: sessionPath(sessionID, "diagram.svg"), accept: "image/svg+xml"}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
