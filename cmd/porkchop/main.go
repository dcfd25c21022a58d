package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/orrery/orrery"
)

// This command propagates the solar system over a transfer window, runs the porkchop search and
// writes the cost map.

const (
	dateFormat = "2006-01-02"
)

var (
	scenario string
	csvPath  string
	pngPath  string
	capΔv    float64
	pixel    int
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", "", "scenario TOML file (optional, defaults to Earth -> Mars)")
	flag.StringVar(&csvPath, "csv", "porkchop.dat", "contour data output")
	flag.StringVar(&pngPath, "png", "porkchop.png", "cost map image output")
	flag.Float64Var(&capΔv, "cap", 0, "Δv (m/s) above which cells are drawn white (0 for the grid maximum)")
	flag.IntVar(&pixel, "pixel", 2, "pixels per grid cell")
}

func main() {
	flag.Parse()
	conf := orrery.DefaultConfig()
	if scenario != "" {
		var err error
		dir, name := filepath.Split(scenario)
		if dir == "" {
			dir = "."
		}
		if conf, err = orrery.LoadConfig(dir, strings.TrimSuffix(name, ".toml")); err != nil {
			log.Fatalf("%s: %s", scenario, err)
		}
	}
	logger := orrery.NewLogger("porkchop")
	catalog, epoch := orrery.SolarSystem()
	sim, err := orrery.NewSimulation(catalog, epoch, conf, logger)
	if err != nil {
		log.Fatal(err)
	}
	central, err := catalog.Lookup(conf.Central)
	if err != nil {
		log.Fatal(err)
	}
	departure, err := catalog.Lookup(conf.Departure)
	if err != nil {
		log.Fatal(err)
	}
	arrival, err := catalog.Lookup(conf.Arrival)
	if err != nil {
		log.Fatal(err)
	}
	w := orrery.NewWindowSearch(central, departure, arrival, conf.Window)
	if _, err := sim.Continue(orrery.Budget{UntilStep: w.LastStep()}); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	start := time.Now()
	sol, err := sim.Recommend(ctx, w)
	if err != nil {
		log.Fatal(err)
	}
	grid, _ := sim.Porkchop()
	a := sim.Archive
	fmt.Printf("searched %dx%d cells in %s\n", len(grid.Values), w.Durations(), time.Since(start))
	fmt.Printf("depart %s (JD %.1f)\narrive %s (JD %.1f)\n%s\n",
		a.StepTime(sol.DepartureStep).Format(dateFormat), a.StepJD(sol.DepartureStep),
		a.StepTime(sol.ArrivalStep).Format(dateFormat), a.StepJD(sol.ArrivalStep), sol)
	fmt.Printf("transfer:  %s\ndeparture: %s\narrival:   %s\n", sol.Transfer, sol.DepartureHyperbola, sol.ArrivalHyperbola)

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := orrery.ExportPorkchop(f, grid, a.Step(), catalog); err != nil {
			log.Fatal(err)
		}
	}
	if pngPath != "" {
		if err := writePNG(pngPath, grid); err != nil {
			log.Fatal(err)
		}
	}
}

// writePNG draws departures along x and durations along y (longest at the top), from blue (cheapest)
// to red (most expensive). Cells without a solution or above the cap are white.
func writePNG(path string, g *orrery.PorkchopGrid) error {
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, row := range g.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			vmin = math.Min(vmin, v)
			vmax = math.Max(vmax, v)
		}
	}
	if capΔv > 0 {
		vmax = math.Min(vmax, capΔv)
	}
	cols := len(g.Values)
	rows := g.Search.Durations()
	img := image.NewRGBA(image.Rect(0, 0, cols*pixel, rows*pixel))
	cheap := colorful.Color{R: 0, G: 0, B: 1}
	costly := colorful.Color{R: 1, G: 0, B: 0}
	for dep, row := range g.Values {
		for dur, v := range row {
			var c color.Color = color.White
			if !math.IsNaN(v) && v <= vmax {
				t := 0.0
				if vmax > vmin {
					t = (v - vmin) / (vmax - vmin)
				}
				c = cheap.BlendRgb(costly, t).Clamped()
			}
			y0 := (rows - 1 - dur) * pixel
			for x := dep * pixel; x < (dep+1)*pixel; x++ {
				for y := y0; y < y0+pixel; y++ {
					img.Set(x, y, c)
				}
			}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
