package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the complete Lyrebird configuration.
type Config struct {
	// Server settings (daemon mode only)
	Server ServerConfig `json:"server"`

	// Generator drives the population/call synthesis engine
	Generator GeneratorConfig `json:"generator"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`
	Output     OutputConfig     `json:"output"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// GeneratorConfig holds the statistical parameters of one generation run.
type GeneratorConfig struct {
	// NumSubscribers is the population size. Subscribers are built in
	// sibling pairs, so an odd count is rounded up.
	NumSubscribers int `json:"numSubscribers"`

	Fraud FraudConfig `json:"fraud"`

	// CallsMade is the per-subscriber call count distribution.
	CallsMade Distribution `json:"callsMade"`

	// PhoneLines is the per-subscriber line count distribution.
	PhoneLines Distribution `json:"phoneLines"`

	// CallTypes is the ordered call type vocabulary.
	CallTypes []string `json:"callTypes"`

	// OutgoingCallParams holds per-call-type duration and weight settings,
	// keyed by call type name.
	OutgoingCallParams map[string]CallTypeParams `json:"outgoingCallParams"`

	// DayOfWeekWeights weights the day offset draw, Monday first. Length 7;
	// missing or short slices fall back to a uniform week.
	DayOfWeekWeights []float64 `json:"dayOfWeekWeights"`

	// StartDate is the run epoch in 2006-01-02 form. Empty means the
	// Monday of the current week.
	StartDate string `json:"startDate"`

	// PeakStartHour and PeakEndHour bound the weekday peak window.
	PeakStartHour int `json:"peakStartHour"`
	PeakEndHour   int `json:"peakEndHour"`

	// PeakProbability is the chance a weekday call starts inside the peak
	// window.
	PeakProbability float64 `json:"peakProbability"`

	// CostExpression is a CEL expression pricing one call. Variables:
	// call_type (string), duration_minutes (double), off_peak (bool),
	// weekend (bool), line (int). Must evaluate to a number.
	CostExpression string `json:"costExpression"`

	// CellsFile points at the CSV of cell records (id, lat, lon).
	CellsFile string `json:"cellsFile"`

	// MaxScheduleAttempts bounds the interval rejection loop per call.
	// Zero keeps the loop unbounded, which mirrors the reference behavior
	// but can spin forever on pathological configurations.
	MaxScheduleAttempts int `json:"maxScheduleAttempts"`
}

// FraudConfig controls post-generation fraud injection.
type FraudConfig struct {
	// Count is the number of fraud clones to inject across the population.
	Count int `json:"count"`

	// DistanceKm is the minimum relocation distance for FAR clones.
	DistanceKm int `json:"distance"`

	// ForceAll marks every generated call UNUSUAL instead of cloning.
	ForceAll bool `json:"forceAll"`
}

// Distribution is a mean/standard-deviation pair for gaussian draws.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// CallTypeParams holds per-call-type generation parameters. Durations are
// minutes.
type CallTypeParams struct {
	DurationMean          float64 `json:"callDur"`
	DurationStdDev        float64 `json:"callStdDev"`
	OffPeakDurationMean   float64 `json:"callOPDur"`
	OffPeakDurationStdDev float64 `json:"callOPStdDev"`

	// Weight biases the call type draw. Zero means weight 1.
	Weight float64 `json:"weight"`
}

// OutputConfig controls where run artifacts are written.
type OutputConfig struct {
	Dir    string `json:"dir"`
	Prefix string `json:"prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
	Endpoint    string `json:"endpoint"`
}

// DefaultConfig returns a runnable configuration: a small population, a
// uniform week, sqlite persistence and in-process cache/bus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Generator: GeneratorConfig{
			NumSubscribers: 100,
			Fraud: FraudConfig{
				Count:      10,
				DistanceKm: 500,
				ForceAll:   false,
			},
			CallsMade:  Distribution{Mean: 20, StdDev: 5},
			PhoneLines: Distribution{Mean: 1, StdDev: 0},
			CallTypes:  []string{"Local", "National", "International"},
			OutgoingCallParams: map[string]CallTypeParams{
				"Local":         {DurationMean: 5, DurationStdDev: 2, OffPeakDurationMean: 10, OffPeakDurationStdDev: 4, Weight: 6},
				"National":      {DurationMean: 4, DurationStdDev: 2, OffPeakDurationMean: 8, OffPeakDurationStdDev: 3, Weight: 3},
				"International": {DurationMean: 3, DurationStdDev: 1, OffPeakDurationMean: 5, OffPeakDurationStdDev: 2, Weight: 1},
			},
			DayOfWeekWeights: []float64{1, 1, 1, 1, 1, 1, 1},
			PeakStartHour:    8,
			PeakEndHour:      18,
			PeakProbability:  0.7,
			CostExpression:   "(off_peak ? 0.05 : 0.12) * duration_minutes + (call_type == 'International' ? 0.5 : 0.1)",
			CellsFile:        "./cells.csv",
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./lyrebird.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 1000,
			LocalTTL:     300,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Output: OutputConfig{
			Dir:    ".",
			Prefix: "cdr",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "lyrebird",
		},
	}
}

// LoadConfig reads a JSON configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	return cfg, nil
}
