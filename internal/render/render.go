// Package render positions diagram nodes with a force-directed layout and
// emits a Plotly figure for the browser to draw.
package render

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/spatial/r2"

	"indexviz/internal/graph"
)

// layoutSeed is fixed so that the same graph always lays out the same way.
const layoutSeed uint64 = 42

// Plotly trace and figure shapes, reduced to the fields the UI uses.

type Line struct {
	Width float64 `json:"width,omitempty"`
	Color string  `json:"color,omitempty"`
}

type ColorBar struct {
	Thickness int    `json:"thickness,omitempty"`
	Title     string `json:"title,omitempty"`
}

type Marker struct {
	ShowScale    bool      `json:"showscale,omitempty"`
	ColorScale   string    `json:"colorscale,omitempty"`
	ReverseScale bool      `json:"reversescale,omitempty"`
	Color        []int     `json:"color,omitempty"`
	Size         int       `json:"size,omitempty"`
	ColorBar     *ColorBar `json:"colorbar,omitempty"`
	Line         *Line     `json:"line,omitempty"`
}

type Trace struct {
	Type      string    `json:"type"`
	Mode      string    `json:"mode"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
	Text      []string  `json:"text,omitempty"`
	HoverText []string  `json:"hovertext,omitempty"`
	HoverInfo string    `json:"hoverinfo,omitempty"`
	Line      *Line     `json:"line,omitempty"`
	Marker    *Marker   `json:"marker,omitempty"`
}

type Axis struct {
	ShowGrid       bool `json:"showgrid"`
	ZeroLine       bool `json:"zeroline"`
	ShowTickLabels bool `json:"showticklabels"`
}

type FigureLayout struct {
	Title      string `json:"title,omitempty"`
	ShowLegend bool   `json:"showlegend"`
	HoverMode  string `json:"hovermode,omitempty"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
}

// Figure is the chart structure handed to the UI; it is JSON-encoded onto the
// HTTP response and passed to the charting library unchanged.
type Figure struct {
	Data   []Trace      `json:"data"`
	Layout FigureLayout `json:"layout"`
}

// Positions assigns a 2D position to every node using gonum's Eades
// force-directed optimizer. The rand source is seeded from seed, so the same
// graph and seed produce the same positions on every call.
func Positions(g *graph.Graph, seed uint64) map[string]r2.Vec {
	pos := make(map[string]r2.Vec, g.Order())
	if g.Order() == 0 {
		return pos
	}
	eades := layout.EadesR2{Repulsion: 1, Rate: 0.05, Updates: 30, Theta: 0.2, Src: rand.NewSource(seed)}
	optimizer := layout.NewOptimizerR2(g.Directed(), eades.Update)
	for optimizer.Update() {
	}
	for _, n := range g.Nodes() {
		pos[n.Label] = optimizer.Coord2(n.ID())
	}
	return pos
}

// Render lays out g and builds the figure: one line trace per edge and one
// markers+text trace covering all nodes, marker color encoding node degree
// and hover text falling back to the label when a node carries no metadata.
func Render(g *graph.Graph) Figure {
	fig := Figure{
		Layout: FigureLayout{
			Title:     "Index Structure Visualization",
			HoverMode: "closest",
		},
	}
	pos := Positions(g, layoutSeed)

	for _, e := range g.Edges() {
		p0, p1 := pos[e.From.Label], pos[e.To.Label]
		fig.Data = append(fig.Data, Trace{
			Type:      "scatter",
			Mode:      "lines",
			X:         []float64{p0.X, p1.X},
			Y:         []float64{p0.Y, p1.Y},
			HoverInfo: "none",
			Line:      &Line{Width: 2, Color: "lightgray"},
		})
	}

	if g.Order() > 0 {
		nodes := Trace{
			Type:      "scatter",
			Mode:      "markers+text",
			HoverInfo: "text",
			Marker: &Marker{
				ShowScale:    true,
				ColorScale:   "YlGnBu",
				ReverseScale: true,
				Size:         20,
				ColorBar:     &ColorBar{Thickness: 15, Title: "Node Connections"},
				Line:         &Line{Width: 2},
			},
		}
		for _, n := range g.Nodes() {
			p := pos[n.Label]
			nodes.X = append(nodes.X, p.X)
			nodes.Y = append(nodes.Y, p.Y)
			nodes.Text = append(nodes.Text, n.Label)
			hover := n.Hover
			if hover == "" {
				hover = n.Label
			}
			nodes.HoverText = append(nodes.HoverText, hover)
			nodes.Marker.Color = append(nodes.Marker.Color, g.Degree(n))
		}
		fig.Data = append(fig.Data, nodes)
	}
	return fig
}
