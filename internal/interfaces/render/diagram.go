// Package render turns quiz state into presentation fragments: an SVG body
// diagram with the placed markers and a sanitised HTML insight panel.
package render

import (
	"bytes"
	"fmt"
	"math"
	"text/template"

	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/marker"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// Diagram size in SVG user units. Marker coordinates are fractions of it.
const (
	DiagramWidth  = 200
	DiagramHeight = 400
)

const diagramSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 {{.Width}} {{.Height}}" width="{{.Width}}" height="{{.Height}}" data-layout="{{xml .LayoutID}}">
  <defs>
    <style>
      .band { fill: none; stroke: #bbb; stroke-dasharray: 3 3; }
      .cut { stroke: #ddd; }
      .label { font: 7px sans-serif; fill: #777; }
      .marker { fill: #e4572e; stroke: #fff; stroke-width: 1; }
      .marker.active { fill: #17bebb; stroke: #222; stroke-width: 1.5; }
      .num { font: bold 6px sans-serif; fill: #fff; text-anchor: middle; }
    </style>
  </defs>
  <line class="cut" x1="{{.LeftCut}}" y1="0" x2="{{.LeftCut}}" y2="{{.Height}}"/>
  <line class="cut" x1="{{.RightCut}}" y1="0" x2="{{.RightCut}}" y2="{{.Height}}"/>
{{- range .Bands}}
  <g class="region" data-region="{{xml .ID}}">
    {{- if .HasEdge}}
    <line class="band" x1="0" y1="{{.Edge}}" x2="{{$.Width}}" y2="{{.Edge}}"/>
    {{- end}}
    <text class="label" x="2" y="{{.LabelY}}">{{xml .Label}}</text>
  </g>
{{- end}}
{{- range .Markers}}
  <g id="marker-{{xml .ID}}" data-region="{{xml .Region}}" data-side="{{xml .Side}}">
    <circle class="marker{{if .Active}} active{{end}}" cx="{{.CX}}" cy="{{.CY}}" r="{{if .Active}}6{{else}}5{{end}}"/>
    <text class="num" x="{{.CX}}" y="{{.NumY}}">{{.N}}</text>
  </g>
{{- end}}
</svg>
`

var diagramTmpl = template.Must(template.New("diagram").Funcs(template.FuncMap{
	"xml": template.HTMLEscapeString,
}).Parse(diagramSVG))

type diagramData struct {
	Width, Height     int
	LayoutID          string
	LeftCut, RightCut string
	Bands             []bandView
	Markers           []markerView
}

type bandView struct {
	ID, Label    string
	HasEdge      bool
	Edge, LabelY string
}

type markerView struct {
	ID, Region, Side string
	Active           bool
	CX, CY, NumY     string
	N                int
}

// DiagramSVG draws the layout's bands (dashed lower edges with labels), the
// side cut lines and the markers in placement order. The active marker is
// drawn larger.
func DiagramSVG(layout *anatomy.Layout, markers []marker.Marker, activeID string) ([]byte, error) {
	if layout == nil {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "no layout to draw")
	}

	cuts := anatomy.DefaultSideCuts
	if layout.SideCuts != nil {
		cuts = *layout.SideCuts
	}
	data := diagramData{
		Width:    DiagramWidth,
		Height:   DiagramHeight,
		LayoutID: layout.ID,
		LeftCut:  px(cuts.Left * DiagramWidth),
		RightCut: px(cuts.Right * DiagramWidth),
	}

	top := 0.0
	for _, b := range layout.Bands {
		label := b.Region
		if r, ok := layout.Region(b.Region); ok {
			label = r.Label
		}
		if label == "" {
			for i, s := range b.Splits {
				if i > 0 {
					label += " | "
				}
				if r, ok := layout.Region(s.Region); ok {
					label += r.Label
				} else {
					label += s.Region
				}
			}
		}
		bottom := 1.0
		if b.Upper != nil {
			bottom = *b.Upper
		}
		data.Bands = append(data.Bands, bandView{
			ID:      b.Region,
			Label:   label,
			HasEdge: b.Upper != nil,
			Edge:    px(bottom * DiagramHeight),
			LabelY:  px(top*DiagramHeight + 9),
		})
		top = bottom
	}

	for i, m := range markers {
		cx, cy := clamp01(m.X)*DiagramWidth, clamp01(m.Y)*DiagramHeight
		data.Markers = append(data.Markers, markerView{
			ID:     m.ID,
			Region: m.Region.ID,
			Side:   string(m.Side),
			Active: m.ID == activeID,
			CX:     px(cx),
			CY:     px(cy),
			NumY:   px(cy + 2),
			N:      i + 1,
		})
	}

	var buf bytes.Buffer
	if err := diagramTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "render diagram")
	}
	return buf.Bytes(), nil
}

func px(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// clamp01 keeps out-of-range points on the canvas; classification itself
// accepts any value.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
