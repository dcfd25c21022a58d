package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/orrery/orrery"
)

// This command propagates the solar system within a step or wall clock budget and prints the orbit of a body.

const (
	dateFormat = "2006-01-02 15:04:05"
)

var (
	scenario string
	steps    int
	deadline time.Duration
	bodyName string
	parent   string
	csvPath  string
	xyzvPath string
	every    int
	metrics  string
	verbose  bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", "", "scenario TOML file (optional)")
	flag.IntVar(&steps, "steps", 864, "number of steps to propagate")
	flag.DurationVar(&deadline, "deadline", 0, "wall clock budget of the propagation (0 for none)")
	flag.StringVar(&bodyName, "body", "Earth", "body whose orbit is printed")
	flag.StringVar(&parent, "parent", "", "reference body of the orbit (defaults to the Kepler parent)")
	flag.StringVar(&csvPath, "csv", "", "export the orbital elements of the body to this CSV file")
	flag.StringVar(&xyzvPath, "xyzv", "", "export the trajectory of the body to this Cosmographia file")
	flag.IntVar(&every, "every", 36, "export one step out of every N")
	flag.StringVar(&metrics, "metrics", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flag.BoolVar(&verbose, "verbose", false, "log the propagation")
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
	if metrics != "" {
		go func() {
			http.Handle("/metrics", orrery.MetricsHandler())
			log.Fatal(http.ListenAndServe(metrics, nil))
		}()
	}

	logger := orrery.NewLogger("orrery")
	if !verbose {
		logger = nil
	}
	catalog, epoch := orrery.SolarSystem()
	sim, err := orrery.NewSimulation(catalog, epoch, conf, logger)
	if err != nil {
		log.Fatal(err)
	}
	budget := orrery.Budget{MaxSteps: steps}
	if deadline > 0 {
		budget.Deadline = time.Now().Add(deadline)
	}
	if _, err := sim.Continue(budget); err != nil {
		log.Fatal(err)
	}
	last := sim.Archive.LastComputed()

	id, err := catalog.Lookup(bodyName)
	if err != nil {
		log.Fatal(err)
	}
	entry, _ := catalog.Entry(id)
	ref := entry.KeplerParent
	if parent != "" {
		if ref, err = catalog.Lookup(parent); err != nil {
			log.Fatal(err)
		}
	}
	refEntry, _ := catalog.Entry(ref)
	for _, step := range []int{0, last} {
		oe, err := sim.Elements(id, ref, step)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s (JD %.5f) %s around %s: %s\n", sim.Archive.StepTime(step).Format(dateFormat), sim.Archive.StepJD(step), entry.Name, refEntry.Name, oe)
	}

	rng := orrery.ExportRange{From: 0, To: -1, Every: every}
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := orrery.ExportElements(f, sim.Archive, catalog, id, rng); err != nil {
			log.Fatal(err)
		}
	}
	if xyzvPath != "" {
		f, err := os.Create(xyzvPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := orrery.ExportInterpolated(f, sim.Archive, catalog, id, ref, rng); err != nil {
			log.Fatal(err)
		}
	}
}
