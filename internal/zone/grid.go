package zone

import (
	"fmt"
	"math"

	"github.com/1broseidon/scape/internal/platform"
)

// CalculateGrid determines grid dimensions for n cells: columns are the
// ceiling of the square root, rows whatever is needed to fit the rest.
func CalculateGrid(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	return rows, cols
}

// GridSpecs splits bounds into rows x cols zones separated by gap. Zones are
// named "<prefix><index>" in row-major order and the first one is the default.
func GridSpecs(bounds platform.Rect, rows, cols, gap int, prefix string) ([]Spec, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions: rows=%d cols=%d", rows, cols)
	}
	if prefix == "" {
		prefix = "zone"
	}

	cellWidth := (bounds.Width - (cols+1)*gap) / cols
	cellHeight := (bounds.Height - (rows+1)*gap) / rows
	if cellWidth <= 0 || cellHeight <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for grid: bounds=%dx%d rows=%d cols=%d gap=%d (cell=%dx%d)",
			bounds.Width, bounds.Height, rows, cols, gap, cellWidth, cellHeight,
		)
	}

	specs := make([]Spec, 0, rows*cols)
	for i := 0; i < rows*cols; i++ {
		row := i / cols
		col := i % cols
		specs = append(specs, Spec{
			Name:    fmt.Sprintf("%s%d", prefix, i),
			X:       bounds.X + gap + col*(cellWidth+gap),
			Y:       bounds.Y + gap + row*(cellHeight+gap),
			Width:   cellWidth,
			Height:  cellHeight,
			Default: i == 0,
		})
	}
	return specs, nil
}

// MasterStackSpecs builds a "master" zone on the left taking masterPercent of
// the width and a vertical stack of stackRows zones on the right. The master
// zone is the default.
func MasterStackSpecs(bounds platform.Rect, masterPercent, stackRows, gap int) ([]Spec, error) {
	if masterPercent < 10 || masterPercent > 90 {
		return nil, fmt.Errorf("master percent must be between 10 and 90, got %d", masterPercent)
	}
	if stackRows < 1 {
		return nil, fmt.Errorf("stack rows must be >= 1, got %d", stackRows)
	}

	masterWidth := (bounds.Width * masterPercent / 100) - gap
	stackX := bounds.X + masterWidth + 2*gap
	stackWidth := bounds.Width - masterWidth - 3*gap
	height := bounds.Height - 2*gap
	cellHeight := (height - (stackRows-1)*gap) / stackRows

	if masterWidth <= 0 || stackWidth <= 0 || cellHeight <= 0 {
		return nil, fmt.Errorf(
			"insufficient space for master-stack: bounds=%dx%d master=%d stack=%d cell=%d gap=%d",
			bounds.Width, bounds.Height, masterWidth, stackWidth, cellHeight, gap,
		)
	}

	specs := []Spec{{
		Name:    "master",
		X:       bounds.X + gap,
		Y:       bounds.Y + gap,
		Width:   masterWidth,
		Height:  height,
		Default: true,
	}}
	for i := 0; i < stackRows; i++ {
		specs = append(specs, Spec{
			Name:   fmt.Sprintf("stack%d", i),
			X:      stackX,
			Y:      bounds.Y + gap + i*(cellHeight+gap),
			Width:  stackWidth,
			Height: cellHeight,
		})
	}
	return specs, nil
}
