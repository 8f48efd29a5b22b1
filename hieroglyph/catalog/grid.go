package catalog

// DefaultColumns is the grid width used when none is requested.
const DefaultColumns = 10

// Tile sizes relative to the screen width.
const (
	tileRatio   = 0.09
	marginRatio = 0.005
)

// TileMetrics describes a square grid tile for a given screen width in pixels.
type TileMetrics struct {
	Size   int `json:"size"`
	Margin int `json:"margin"`
}

// Metrics computes square tile size and margin for screenWidth.
func Metrics(screenWidth int) TileMetrics {
	if screenWidth <= 0 {
		return TileMetrics{}
	}
	return TileMetrics{
		Size:   int(float64(screenWidth) * tileRatio),
		Margin: int(float64(screenWidth) * marginRatio),
	}
}

// ColumnsFor returns how many tiles fit in one row of screenWidth.
func ColumnsFor(screenWidth int) int {
	m := Metrics(screenWidth)
	cell := m.Size + 2*m.Margin
	if cell <= 0 {
		return DefaultColumns
	}
	if n := screenWidth / cell; n > 0 {
		return n
	}
	return 1
}
