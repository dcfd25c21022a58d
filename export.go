package orrery

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ExportRange selects the archived steps to export: from `From` to `To` (inclusive) every `Every` steps.
// A negative `To` means the last computed step.
type ExportRange struct {
	From, To, Every int
}

func (r ExportRange) steps(a *Archive) ([]int, error) {
	last := a.LastComputed()
	to := r.To
	if to < 0 {
		to = last
	}
	if r.From < 0 || to > last {
		return nil, fmt.Errorf("%w: export range [%d, %d] (last %d)", ErrStepNotComputed, r.From, to, last)
	}
	every := r.Every
	if every <= 0 {
		every = 1
	}
	var steps []int
	for s := r.From; s <= to; s += every {
		steps = append(steps, s)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty export range [%d, %d]", r.From, to)
	}
	return steps, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportStates writes the inertial states of every body as CSV records:
// step, Julian date, body, x, y, z, vx, vy, vz (meters and meters per second).
func ExportStates(w io.Writer, a *Archive, c *Catalog, r ExportRange) error {
	steps, err := r.steps(a)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "jd", "body", "x", "y", "z", "vx", "vy", "vz"}); err != nil {
		return err
	}
	for _, step := range steps {
		snap, err := a.Snapshot(step)
		if err != nil {
			return err
		}
		jd := formatFloat(a.StepJD(step))
		for id, st := range snap {
			record := []string{strconv.Itoa(step), jd, c.entries[id].Name}
			for _, v := range append(append([]float64(nil), st.R...), st.V...) {
				record = append(record, formatFloat(v))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportElements writes the orbital elements of a body relative to its Kepler parent as CSV records:
// step, date, a, e, i, Ω, ω, ν. Angles are in degrees.
func ExportElements(w io.Writer, a *Archive, c *Catalog, id BodyID, r ExportRange) error {
	entry, err := c.Entry(id)
	if err != nil {
		return err
	}
	if entry.KeplerParent == id {
		return fmt.Errorf("%w: %s has no Kepler parent", ErrUnknownBody, entry.Name)
	}
	parent := c.entry(entry.KeplerParent)
	steps, err := r.steps(a)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "time", "a", "e", "i", "Omega", "omega", "nu"}); err != nil {
		return err
	}
	for _, step := range steps {
		st, err := a.State(step, id)
		if err != nil {
			return err
		}
		ps, err := a.State(step, entry.KeplerParent)
		if err != nil {
			return err
		}
		rel := st.RelativeTo(ps)
		oe := RVToOE(parent.GM, rel.R, rel.V)
		record := []string{strconv.Itoa(step), a.StepTime(step).Format("2006-01-02 15:04:05"),
			formatFloat(oe.A), formatFloat(oe.E), formatFloat(Rad2deg(oe.I)), formatFloat(Rad2deg(oe.Ω)),
			formatFloat(Rad2deg(oe.ω)), formatFloat(Rad2deg(oe.ν))}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// InterpolatedState is a Cosmographia interpolated state record (km and km/s).
type InterpolatedState struct {
	JD       float64
	Position []float64
	Velocity []float64
}

// ToText converts to text for written output.
func (i InterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the records of an interpolated states file, skipping comments.
func ParseInterpolatedStates(s string) ([]InterpolatedState, error) {
	var states []InterpolatedState
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ' '
	r.Comment = '#'
	r.FieldsPerRecord = 7
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		vals := make([]float64, 7)
		for i, txt := range record {
			if vals[i], err = strconv.ParseFloat(txt, 64); err != nil {
				return nil, err
			}
		}
		states = append(states, InterpolatedState{JD: vals[0], Position: vals[1:4], Velocity: vals[4:7]})
	}
	return states, nil
}

// ExportInterpolated writes the trajectory of a body relative to a center as a Cosmographia xyzv file.
func ExportInterpolated(w io.Writer, a *Archive, c *Catalog, id, center BodyID, r ExportRange) error {
	if !c.Has(id) || !c.Has(center) {
		return fmt.Errorf("%w: %d or %d", ErrUnknownBody, id, center)
	}
	steps, err := r.steps(a)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Position in km
#   Velocity in km/sec
#   Simulation time start (UTC): %s`, time.Now().UTC(), a.StepTime(steps[0])); err != nil {
		return err
	}
	for _, step := range steps {
		st, err := a.State(step, id)
		if err != nil {
			return err
		}
		cs, err := a.State(step, center)
		if err != nil {
			return err
		}
		rel := st.RelativeTo(cs)
		rec := InterpolatedState{JD: a.StepJD(step), Position: scale(1e-3, rel.R), Velocity: scale(1e-3, rel.V)}
		if _, err := io.WriteString(w, "\n"+rec.ToText()); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n# Simulation time end (UTC): %s\n", a.StepTime(steps[len(steps)-1]))
	return err
}

// ExportPorkchop writes the porkchop grid as a contour data file: departures as new lines, durations as
// new columns, total Δv in m/s, NaN where no transfer exists.
func ExportPorkchop(w io.Writer, g *PorkchopGrid, step time.Duration, c *Catalog) error {
	s := g.Search
	depName, arrName := strconv.Itoa(int(s.Departure)), strconv.Itoa(int(s.Arrival))
	if c != nil && c.Has(s.Departure) && c.Has(s.Arrival) {
		depName, arrName = c.entries[s.Departure].Name, c.entries[s.Arrival].Name
	}
	days := func(steps int) float64 {
		return (time.Duration(steps) * step).Hours() / 24
	}
	if _, err := fmt.Fprintf(w, "%% %s -> %s\n%% departure days as new lines, duration days as new columns\n%% departures: %g to %g every %g days\n%% durations: %g to %g every %g days\n",
		depName, arrName,
		days(s.DepartureStep(0)), days(s.DepartureStep(s.DepartureCount-1)), days(s.DepartureStride),
		days(s.MinDuration), days(s.Duration(s.Durations()-1)), days(s.DurationStride)); err != nil {
		return err
	}
	if g.Found {
		if _, err := fmt.Fprintf(w, "%% minimum: row %d col %d short=%v Δv=%f\n", g.Best.Row, g.Best.Col, g.Best.Short, g.Best.TotalΔv); err != nil {
			return err
		}
	}
	for _, row := range g.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			if math.IsNaN(v) {
				cells[i] = "NaN"
			} else {
				cells[i] = fmt.Sprintf("%f", v)
			}
		}
		if _, err := io.WriteString(w, strings.Join(cells, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
