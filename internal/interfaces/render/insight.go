package render

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/microcosm-cc/bluemonday"

	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/internal/domain/theme"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

const insightHTML = `<section class="insight" data-saved-at="{{.SavedAt}}">
{{- if .Single}}
  <h2>{{.Single.Title}}</h2>
  {{- if .Single.Summary}}
  <p class="summary">{{.Single.Summary}}</p>
  {{- end}}
  {{- if .Single.Factors}}
  <h3>Contributing factors</h3>
  <ul class="factors">{{range .Single.Factors}}<li>{{.}}</li>{{end}}</ul>
  {{- end}}
  {{- if .Single.Actions}}
  <h3>Try this</h3>
  <ul class="actions">{{range .Single.Actions}}<li>{{.}}</li>{{end}}</ul>
  {{- end}}
{{- else}}
  {{- range .Themes}}
  <article class="theme" id="theme-{{.ID}}">
    <h3>{{.Title}}</h3>
    <p>{{.Text}}</p>
  </article>
  {{- end}}
{{- end}}
</section>
`

var insightTmpl = template.Must(template.New("insight").Parse(insightHTML))

// prosePolicy is applied to the free-text fields of a stored insight
// (summary and theme text). Inline emphasis and line breaks survive; any
// other markup is stripped before the text is trusted by the template.
var prosePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("em", "strong", "b", "i", "br")
	return p
}()

// singleInsight is the common shape of the system and rule insights.
type singleInsight struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Factors []string `json:"factors"`
	Actions []string `json:"actions"`
}

type singleView struct {
	Title   string
	Summary template.HTML
	Factors []string
	Actions []string
}

type themeView struct {
	ID    string
	Title string
	Text  template.HTML
}

type insightData struct {
	SavedAt string
	Single  *singleView
	Themes  []themeView
}

// prose sanitises s and marks the result safe for html/template.
func prose(s string) template.HTML {
	return template.HTML(prosePolicy.Sanitize(s))
}

// InsightHTML renders a stored snapshot as an HTML fragment: the single-form
// insight when the snapshot carries one, the theme list otherwise. Titles and
// list items are escaped by the template; summary and theme text go through
// prosePolicy.
func InsightHTML(snap snapshot.Snapshot) ([]byte, error) {
	data := insightData{SavedAt: snap.SavedAt}
	switch {
	case len(snap.Insight) > 0:
		var in singleInsight
		if err := json.Unmarshal(snap.Insight, &in); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode snapshot insight")
		}
		data.Single = &singleView{
			Title:   in.Title,
			Summary: prose(in.Summary),
			Factors: in.Factors,
			Actions: in.Actions,
		}
	case len(snap.Result) > 0:
		var themes []theme.Theme
		if err := json.Unmarshal(snap.Result, &themes); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode snapshot themes")
		}
		data.Themes = make([]themeView, 0, len(themes))
		for _, th := range themes {
			data.Themes = append(data.Themes, themeView{ID: th.ID, Title: th.Title, Text: prose(th.Text)})
		}
	}

	var buf bytes.Buffer
	if err := insightTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "render insight")
	}
	return buf.Bytes(), nil
}
