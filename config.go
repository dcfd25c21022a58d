package orrery

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ParkingAltitude is the default altitude of the departure and arrival parking orbits, in meters.
	ParkingAltitude = 180e3
	// LambertTolerance is the default relative tolerance on the time of flight of the Lambert solver.
	LambertTolerance = 1e-7
	// LambertMaxIterations is the default iteration limit of the Lambert solver.
	LambertMaxIterations = 100
	// stepsPerDay is the number of default steps in one day.
	stepsPerDay = int(24 * time.Hour / StepSize)
)

// Config is the configuration of a simulation.
type Config struct {
	Step    time.Duration // Integration step
	J2      bool          // Enables the oblateness perturbation
	Workers int           // Goroutines used per RK4 stage and for the window search

	ParkingAltitude      float64 // meters
	LambertTolerance     float64 // relative to the time of flight
	LambertMaxIterations int
	KeplerTolerance      float64
	KeplerMaxIterations  int
	Orientation          OrientationPolicy
	TargetInclination    float64 // radians, used by the inclination search

	Central, Departure, Arrival string // Body names of the transfer

	Window WindowConfig
}

// WindowConfig is the porkchop grid, expressed in steps.
type WindowConfig struct {
	FirstDeparture  int
	DepartureStride int
	DepartureCount  int
	MinDuration     int
	MaxDuration     int
	DurationStride  int
}

// DefaultConfig returns the default configuration: 100 s steps, no J2, Earth to Mars windows.
func DefaultConfig() Config {
	return Config{
		Step:                 StepSize,
		Workers:              runtime.NumCPU(),
		ParkingAltitude:      ParkingAltitude,
		LambertTolerance:     LambertTolerance,
		LambertMaxIterations: LambertMaxIterations,
		KeplerTolerance:      KeplerTolerance,
		KeplerMaxIterations:  KeplerMaxIterations,
		Orientation:          ClosedForm,
		TargetInclination:    math.Pi / 2,
		Central:              "Sun",
		Departure:            "Earth",
		Arrival:              "Mars",
		Window: WindowConfig{
			DepartureStride: stepsPerDay,
			DepartureCount:  30,
			MinDuration:     90 * stepsPerDay,
			MaxDuration:     360 * stepsPerDay,
			DurationStride:  stepsPerDay / 2,
		},
	}
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Step <= 0:
		return fmt.Errorf("%w: step must be positive, got %s", ErrInvalidConfig, c.Step)
	case c.ParkingAltitude < 0:
		return fmt.Errorf("%w: negative parking altitude %f", ErrInvalidConfig, c.ParkingAltitude)
	case c.LambertTolerance <= 0 || c.LambertMaxIterations <= 0:
		return fmt.Errorf("%w: Lambert tolerance and iterations must be positive", ErrInvalidConfig)
	case c.KeplerTolerance <= 0 || c.KeplerMaxIterations <= 0:
		return fmt.Errorf("%w: Kepler tolerance and iterations must be positive", ErrInvalidConfig)
	case c.Orientation != ClosedForm && c.Orientation != InclinationSearch:
		return fmt.Errorf("%w: unknown orientation policy %d", ErrInvalidConfig, c.Orientation)
	case c.Window.DepartureStride <= 0 || c.Window.DurationStride <= 0:
		return fmt.Errorf("%w: window strides must be positive", ErrInvalidConfig)
	case c.Window.MinDuration <= 0 || c.Window.MaxDuration < c.Window.MinDuration:
		return fmt.Errorf("%w: invalid window durations [%d, %d]", ErrInvalidConfig, c.Window.MinDuration, c.Window.MaxDuration)
	}
	return nil
}

// KeplerSolver returns the Kepler equation solver of this configuration.
func (c Config) KeplerSolver() KeplerSolver {
	return KeplerSolver{Tolerance: c.KeplerTolerance, MaxIterations: c.KeplerMaxIterations}
}

// LoadConfig reads the `name` configuration file (e.g. conf.toml) from the provided directory.
// If dir is empty, the ORRERY_CONFIG environment variable is used. Missing keys keep their default
// value and every key may be overridden by an ORRERY_ prefixed environment variable
// (e.g. ORRERY_PROPAGATION_STEP=60s).
func LoadConfig(dir, name string) (Config, error) {
	conf := DefaultConfig()
	if dir == "" {
		dir = os.Getenv("ORRERY_CONFIG")
	}
	v := viper.New()
	v.SetEnvPrefix("orrery")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("propagation.step", conf.Step)
	v.SetDefault("propagation.j2", conf.J2)
	v.SetDefault("propagation.workers", conf.Workers)
	v.SetDefault("transfer.parking_altitude", conf.ParkingAltitude)
	v.SetDefault("transfer.orientation", conf.Orientation.String())
	v.SetDefault("transfer.target_inclination", Rad2deg(conf.TargetInclination))
	v.SetDefault("transfer.central", conf.Central)
	v.SetDefault("transfer.departure", conf.Departure)
	v.SetDefault("transfer.arrival", conf.Arrival)
	v.SetDefault("lambert.tolerance", conf.LambertTolerance)
	v.SetDefault("lambert.max_iterations", conf.LambertMaxIterations)
	v.SetDefault("kepler.tolerance", conf.KeplerTolerance)
	v.SetDefault("kepler.max_iterations", conf.KeplerMaxIterations)
	v.SetDefault("window.first_departure", conf.Window.FirstDeparture)
	v.SetDefault("window.departure_stride", conf.Window.DepartureStride)
	v.SetDefault("window.departure_count", conf.Window.DepartureCount)
	v.SetDefault("window.min_duration", conf.Window.MinDuration)
	v.SetDefault("window.max_duration", conf.Window.MaxDuration)
	v.SetDefault("window.duration_stride", conf.Window.DurationStride)
	if dir != "" {
		if name == "" {
			name = "conf"
		}
		v.SetConfigName(name)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			return conf, fmt.Errorf("%w: %s/%s: %s", ErrInvalidConfig, dir, name, err)
		}
	}

	conf.Step = v.GetDuration("propagation.step")
	conf.J2 = v.GetBool("propagation.j2")
	conf.Workers = v.GetInt("propagation.workers")
	conf.ParkingAltitude = v.GetFloat64("transfer.parking_altitude")
	policy, err := ParseOrientationPolicy(v.GetString("transfer.orientation"))
	if err != nil {
		return conf, err
	}
	conf.Orientation = policy
	conf.TargetInclination = v.GetFloat64("transfer.target_inclination") * deg2rad
	conf.Central = v.GetString("transfer.central")
	conf.Departure = v.GetString("transfer.departure")
	conf.Arrival = v.GetString("transfer.arrival")
	conf.LambertTolerance = v.GetFloat64("lambert.tolerance")
	conf.LambertMaxIterations = v.GetInt("lambert.max_iterations")
	conf.KeplerTolerance = v.GetFloat64("kepler.tolerance")
	conf.KeplerMaxIterations = v.GetInt("kepler.max_iterations")
	conf.Window = WindowConfig{
		FirstDeparture:  v.GetInt("window.first_departure"),
		DepartureStride: v.GetInt("window.departure_stride"),
		DepartureCount:  v.GetInt("window.departure_count"),
		MinDuration:     v.GetInt("window.min_duration"),
		MaxDuration:     v.GetInt("window.max_duration"),
		DurationStride:  v.GetInt("window.duration_stride"),
	}
	return conf, conf.Validate()
}
