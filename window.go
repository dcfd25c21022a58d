package orrery

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/gonum/floats"
)

// WindowSearch defines the porkchop grid: departure offsets (rows) by transfer durations (columns), in steps.
type WindowSearch struct {
	Central, Departure, Arrival BodyID
	FirstDeparture              int
	DepartureStride             int
	DepartureCount              int
	MinDuration                 int
	MaxDuration                 int
	DurationStride              int
}

// NewWindowSearch returns the window search between the provided bodies using the window configuration.
func NewWindowSearch(central, departure, arrival BodyID, w WindowConfig) WindowSearch {
	return WindowSearch{Central: central, Departure: departure, Arrival: arrival,
		FirstDeparture: w.FirstDeparture, DepartureStride: w.DepartureStride, DepartureCount: w.DepartureCount,
		MinDuration: w.MinDuration, MaxDuration: w.MaxDuration, DurationStride: w.DurationStride}
}

// Durations returns the number of duration columns.
func (w WindowSearch) Durations() int {
	if w.DurationStride <= 0 || w.MaxDuration < w.MinDuration {
		return 0
	}
	return (w.MaxDuration-w.MinDuration)/w.DurationStride + 1
}

// DepartureStep returns the departure step of the provided row.
func (w WindowSearch) DepartureStep(row int) int {
	return w.FirstDeparture + row*w.DepartureStride
}

// Duration returns the duration in steps of the provided column.
func (w WindowSearch) Duration(col int) int {
	return w.MinDuration + col*w.DurationStride
}

// LastStep returns the last archive step needed by this search.
func (w WindowSearch) LastStep() int {
	return w.DepartureStep(w.DepartureCount-1) + w.Duration(w.Durations()-1)
}

func (w WindowSearch) validate() error {
	if w.DepartureCount <= 0 || w.DepartureStride <= 0 || w.Durations() == 0 || w.FirstDeparture < 0 || w.MinDuration <= 0 {
		return fmt.Errorf("%w: invalid window %+v", ErrInvalidConfig, w)
	}
	return nil
}

// GridCell is a cell of the porkchop grid along with its best branch.
type GridCell struct {
	Row, Col                   int
	DepartureStep, ArrivalStep int
	Short                      bool
	TotalΔv                    float64
}

// Request returns the transfer request of this cell.
func (c GridCell) Request(w WindowSearch) TransferRequest {
	return TransferRequest{Central: w.Central, Departure: w.Departure, Arrival: w.Arrival,
		DepartureStep: c.DepartureStep, ArrivalStep: c.ArrivalStep, Short: c.Short}
}

// PorkchopGrid is the total Δv of the best branch for each departure (rows) and duration (columns).
// Cells without any solution are NaN.
type PorkchopGrid struct {
	Search WindowSearch
	Values [][]float64
	Short  [][]bool
	Best   GridCell
	Found  bool
}

// Min returns the minimum of the grid found by scanning every cell, ignoring NaNs.
func (g *PorkchopGrid) Min() (GridCell, bool) {
	var best GridCell
	found := false
	for r, row := range g.Values {
		valid := make([]float64, 0, len(row))
		idx := make([]int, 0, len(row))
		for c, v := range row {
			if !math.IsNaN(v) {
				valid = append(valid, v)
				idx = append(idx, c)
			}
		}
		if len(valid) == 0 {
			continue
		}
		m := floats.MinIdx(valid)
		if !found || valid[m] < best.TotalΔv {
			c := idx[m]
			best = GridCell{Row: r, Col: c, DepartureStep: g.Search.DepartureStep(r),
				ArrivalStep: g.Search.DepartureStep(r) + g.Search.Duration(c), Short: g.Short[r][c], TotalΔv: valid[m]}
			found = true
		}
	}
	return best, found
}

type cellResult struct {
	row, col int
	value    float64
	short    bool
}

// Porkchop evaluates every cell of the window search with both Lambert branches, keeping the cheaper one,
// and records the global minimum. Cells are evaluated by a pool of workers; the minimum is reduced in row
// major order so that ties resolve to the first cell.
func (d *Designer) Porkchop(ctx context.Context, w WindowSearch, workers int) (*PorkchopGrid, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	if last := d.archive.LastComputed(); w.LastStep() > last {
		return nil, fmt.Errorf("%w: window needs step %d (last %d)", ErrStepNotComputed, w.LastStep(), last)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	rows, cols := w.DepartureCount, w.Durations()
	grid := &PorkchopGrid{Search: w, Values: make([][]float64, rows), Short: make([][]bool, rows)}
	for r := range grid.Values {
		grid.Values[r] = make([]float64, cols)
		grid.Short[r] = make([]bool, cols)
	}

	jobs := make(chan [2]int, workers*2)
	results := make(chan cellResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res := d.evaluateCell(w, job[0], job[1])
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				select {
				case jobs <- [2]int{r, c}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	evaluated := 0
	for res := range results {
		grid.Values[res.row][res.col] = res.value
		grid.Short[res.row][res.col] = res.short
		evaluated++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if evaluated != rows*cols {
		return nil, fmt.Errorf("porkchop evaluated %d of %d cells", evaluated, rows*cols)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := grid.Values[r][c]
			if math.IsNaN(v) {
				continue
			}
			if !grid.Found || v < grid.Best.TotalΔv {
				grid.Best = GridCell{Row: r, Col: c, DepartureStep: w.DepartureStep(r),
					ArrivalStep: w.DepartureStep(r) + w.Duration(c), Short: grid.Short[r][c], TotalΔv: v}
				grid.Found = true
			}
		}
	}
	if grid.Found {
		d.logger.Log("level", "notice", "subsys", "porkchop", "departure", grid.Best.DepartureStep, "arrival", grid.Best.ArrivalStep, "short", grid.Best.Short, "Δv", grid.Best.TotalΔv)
	} else {
		d.logger.Log("level", "warning", "subsys", "porkchop", "message", "no transfer in window")
	}
	return grid, nil
}

// evaluateCell designs both branches of a cell and returns the cheaper total Δv, or NaN if neither exists.
func (d *Designer) evaluateCell(w WindowSearch, row, col int) cellResult {
	res := cellResult{row: row, col: col, value: math.NaN()}
	dep := w.DepartureStep(row)
	for _, short := range []bool{true, false} {
		sol, err := d.Design(TransferRequest{Central: w.Central, Departure: w.Departure, Arrival: w.Arrival,
			DepartureStep: dep, ArrivalStep: dep + w.Duration(col), Short: short})
		if err != nil {
			porkchopCells.WithLabelValues("no_solution").Inc()
			continue
		}
		porkchopCells.WithLabelValues("ok").Inc()
		if total := sol.TotalΔv(); math.IsNaN(res.value) || total < res.value {
			res.value = total
			res.short = short
		}
	}
	return res
}
