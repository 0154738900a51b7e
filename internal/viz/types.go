// Package viz renders layouts and timelines as self-contained HTML pages
// with an inline SVG.
package viz

// Scene is one drawable view. Shapes are drawn in field order: rects,
// lines, paths, circles, then texts.
type Scene struct {
	Kind    string  `json:"kind"` // "constellation", "web" or "timeline"
	Title   string  `json:"title"`
	Width   float64 `json:"width"`  // element width in screen pixels
	Height  float64 `json:"height"` // element height in screen pixels
	ViewBox string  `json:"view_box"`
	Scale   float64 `json:"scale"` // screen pixels per data unit

	Rects   []Rect   `json:"rects,omitempty"`
	Lines   []Line   `json:"lines,omitempty"`
	Paths   []Path   `json:"paths,omitempty"`
	Circles []Circle `json:"circles,omitempty"`
	Texts   []Text   `json:"texts,omitempty"`

	Empty *EmptyState `json:"empty,omitempty"`
}

// EmptyState is shown instead of the drawing when there is nothing to draw.
type EmptyState struct {
	Heading string `json:"heading"`
	Message string `json:"message"`
	Hint    string `json:"hint"`
}

// IsEmpty returns true if the scene should render its empty state.
func (s *Scene) IsEmpty() bool {
	return s.Empty != nil
}

// Circle is an SVG circle. Title becomes a hover tooltip.
type Circle struct {
	ID          int64   `json:"id,omitempty"`
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Opacity     float64 `json:"opacity"`
	Title       string  `json:"title,omitempty"`
}

// Line is an SVG line segment.
type Line struct {
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Stroke  string  `json:"stroke"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
	Dash    string  `json:"dash,omitempty"`
}

// Path is an SVG path.
type Path struct {
	D       string  `json:"d"`
	Stroke  string  `json:"stroke"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
	Dash    string  `json:"dash,omitempty"`
}

// Rect is an SVG rectangle.
type Rect struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Fill    string  `json:"fill"`
	Opacity float64 `json:"opacity"`
	Title   string  `json:"title,omitempty"`
}

// Text is an SVG text element.
type Text struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content"`
	Size    float64 `json:"size"`
	Fill    string  `json:"fill"`
	Anchor  string  `json:"anchor,omitempty"` // start, middle or end
	Bold    bool    `json:"bold,omitempty"`
}
