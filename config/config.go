package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/spatial"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the mixer's fully-resolved startup configuration.
type Config struct {
	DynamicJitterBuffers bool          `yaml:"dynamic_jitter_buffers"`
	StatsInterval        time.Duration `yaml:"stats_interval"`
	FrameLogLevel        string        `yaml:"frame_log_level"`

	SourceUnattenuatedZone   *spatial.AABB `yaml:"-"`
	ListenerUnattenuatedZone *spatial.AABB `yaml:"-"`
}

// Default returns the compiled-in defaults: static jitter buffers, a
// one-second stats cadence, and info-level frame logging.
func Default() Config {
	return Config{
		DynamicJitterBuffers: false,
		StatsInterval:        audiomixer.StatsIntervalUS * time.Microsecond,
		FrameLogLevel:        "info",
	}
}

// LoadYAMLFile layers operational tuning from an optional YAML file
// on top of base. A missing or malformed file is not fatal: it is
// operational tuning, not a correctness-critical wire contract, so
// this logs a warning and returns base unchanged.
func LoadYAMLFile(base Config, path string) Config {
	if path == "" {
		return base
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "LoadYAMLFile",
			"path":     path,
			"error":    err,
		}).Warn("config file unreadable, using defaults")
		return base
	}

	merged := base
	if err := yaml.Unmarshal(data, &merged); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "LoadYAMLFile",
			"path":     path,
			"error":    err,
		}).Warn("config file malformed, using defaults")
		return base
	}

	logrus.WithFields(logrus.Fields{
		"function": "LoadYAMLFile",
		"path":     path,
	}).Info("loaded mixer configuration file")

	return merged
}

var (
	unattenuatedZoneRegex  = regexp.MustCompile(`--unattenuated-zone (\S+)`)
	dynamicJitterFlagRegex = regexp.MustCompile(`--dynamicJitterBuffer`)
)

// ApplyPayload layers the wire payload's key/value zone grammar on top
// of cfg, matching the original's QRegExp-based parsing: an
// `--unattenuated-zone` token followed by 12 comma-separated floats
// (source corner xyz, source dimensions xyz, listener corner xyz,
// listener dimensions xyz), and an optional bare `--dynamicJitterBuffer`
// flag token. A malformed zone clause is a fatal ErrMalformedConfig;
// the payload is otherwise free-form text and unrecognized tokens are
// ignored.
func ApplyPayload(cfg Config, payload string) (Config, error) {
	if dynamicJitterFlagRegex.MatchString(payload) {
		cfg.DynamicJitterBuffers = true
	}

	match := unattenuatedZoneRegex.FindStringSubmatch(payload)
	if match == nil {
		return cfg, nil
	}

	fields := strings.Split(match[1], ",")
	if len(fields) != 12 {
		return cfg, fmt.Errorf("%w: unattenuated-zone needs 12 comma-separated floats, got %d", audiomixer.ErrMalformedConfig, len(fields))
	}

	values := make([]float64, 12)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: unattenuated-zone field %d: %v", audiomixer.ErrMalformedConfig, i, err)
		}
		values[i] = v
	}

	sourceZone := spatial.AABB{
		Corner:     spatial.Vec3{X: values[0], Y: values[1], Z: values[2]},
		Dimensions: spatial.Vec3{X: values[3], Y: values[4], Z: values[5]},
	}
	listenerZone := spatial.AABB{
		Corner:     spatial.Vec3{X: values[6], Y: values[7], Z: values[8]},
		Dimensions: spatial.Vec3{X: values[9], Y: values[10], Z: values[11]},
	}
	cfg.SourceUnattenuatedZone = &sourceZone
	cfg.ListenerUnattenuatedZone = &listenerZone

	logrus.WithFields(logrus.Fields{
		"function":        "ApplyPayload",
		"source_center":   sourceZone.Center(),
		"listener_center": listenerZone.Center(),
	}).Info("unattenuated zone configured")

	return cfg, nil
}
