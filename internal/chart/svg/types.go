package svg

// Series is one named data series. Nil points are gaps.
type Series struct {
	Name   string
	Color  string
	Values []*float64
	Dashed bool
}

// Opts customises every renderer.
type Opts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	TickSuffix  string
	ShowDots    bool
	// ZeroBased forces the value axis to include zero.
	ZeroBased bool
}

// Slice is one doughnut segment.
type Slice struct {
	Label string
	Value float64
	Color string
}

// Defaults for dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 32.0
	DefaultTicks   = 5
)

// Palette cycles through when a series has no colour.
var Palette = []string{"#10b981", "#94a3b8", "#0ea5e9", "#f97316", "#6366f1", "#e11d48"}
