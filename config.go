package transactron

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config configures a Context: the scheduling discipline its
// scheduler synthesizer uses, and the verbosity of its diagnostics
// logging.
type Config struct {
	// Mode selects GreedyDeterministic or RoundRobin arbitration. The
	// zero value is GreedyDeterministic.
	Mode SchedulerMode `yaml:"mode"`
	// LogLevelName is the logrus level name ("debug", "info", "warn",
	// "error"); defaults to "info".
	LogLevelName string `yaml:"logLevel"`
	// LogLevel is the parsed form of LogLevelName, filled in by
	// setDefaults/LoadConfig, which always overwrite it from
	// LogLevelName.
	LogLevel logrus.Level `yaml:"-"`
	// StepsPerCycle is the number of Circuit.Step calls BuildCircuit's
	// runtime uses per clock cycle; rounded up to a power of two, at
	// least 2. Zero means "use the default" (4).
	StepsPerCycle uint `yaml:"stepsPerCycle"`
	// Workers is the number of goroutines BuildCircuit's runtime uses
	// to advance the circuit. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

func (c *Config) setDefaults() {
	if c.StepsPerCycle == 0 {
		c.StepsPerCycle = 4
	}
	if c.LogLevelName == "" {
		c.LogLevelName = "info"
	}
	if lvl, err := logrus.ParseLevel(c.LogLevelName); err == nil {
		c.LogLevel = lvl
	} else {
		c.LogLevel = logrus.InfoLevel
	}
}

// MarshalYAML and UnmarshalYAML implement the yaml.Marshaler/Unmarshaler pair for
// SchedulerMode, so config files spell it "greedy" / "round-robin"
// instead of an integer.
func (m SchedulerMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML parses "greedy", "greedy-deterministic" or
// "round-robin" into a SchedulerMode.
func (m *SchedulerMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseSchedulerMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseSchedulerMode parses "greedy", "greedy-deterministic" or
// "round-robin" (and "roundrobin") into a SchedulerMode; the empty
// string parses as GreedyDeterministic. CLI flags use this directly,
// outside of any YAML document.
func ParseSchedulerMode(s string) (SchedulerMode, error) {
	switch s {
	case "", "greedy", "greedy-deterministic":
		return GreedyDeterministic, nil
	case "round-robin", "roundrobin":
		return RoundRobin, nil
	default:
		return GreedyDeterministic, errors.Errorf("transactron: unknown scheduler mode %q", s)
	}
}

// LoadConfig reads a YAML Config from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	cfg.setDefaults()
	return cfg, nil
}
