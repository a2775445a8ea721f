// Package config loads the whisker YAML configuration file.
package config

import (
	"os"
	"syscall"
	"time"

	"github.com/noriah/whisker"
	"github.com/noriah/whisker/detect"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/dsp/window"
	"github.com/noriah/whisker/fft"
	"github.com/noriah/whisker/notify"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config mirrors the file layout. Durations are Go duration strings.
type Config struct {
	Input    Input    `yaml:"input"`
	Pipeline Pipeline `yaml:"pipeline"`
	Training Training `yaml:"training"`
	Detector Detector `yaml:"detector"`
	MQTT     MQTT     `yaml:"mqtt"`
	HTTP     HTTP     `yaml:"http"`
	Metrics  Metrics  `yaml:"metrics"`
	Logging  Logging  `yaml:"logging"`
	Display  Display  `yaml:"display"`
}

type Input struct {
	Backend    string  `yaml:"backend"`
	Device     string  `yaml:"device"`
	SampleRate float64 `yaml:"sample_rate"`
	// OverflowCeiling is the largest sample latency counted towards the rate
	OverflowCeiling string `yaml:"overflow_ceiling"`
}

type Pipeline struct {
	FrameSize      int    `yaml:"frame_size"`
	Transform      string `yaml:"transform"`
	Window         string `yaml:"window"`
	SuppressedBins int    `yaml:"suppressed_bins"`
	FrameRate      int    `yaml:"frame_rate"`
	MatchHistory   int    `yaml:"match_history"`
}

type Training struct {
	BaselineFraction float64 `yaml:"baseline_fraction"`
	// Signal flips training when received. Only "usr1", "usr2" or "" (off).
	Signal string `yaml:"signal"`
}

type Detector struct {
	MatchThreshold      float64 `yaml:"match_threshold"`
	DetectionMinTime    string  `yaml:"detection_min_time"`
	InUseReleaseTime    string  `yaml:"in_use_release_time"`
	SpikeWaitingTimeout string  `yaml:"spike_waiting_timeout"`
	SpikeReleaseTime    string  `yaml:"spike_release_time"`
	SpuriousReleaseTime string  `yaml:"spurious_release_time"`
}

type MQTT struct {
	Enabled      bool   `yaml:"enabled"`
	Broker       string `yaml:"broker"`
	ThingID      string `yaml:"thing_id"`
	APIKey       string `yaml:"api_key"`
	QoS          byte   `yaml:"qos"`
	Retain       bool   `yaml:"retain"`
	ConnectRetry string `yaml:"connect_retry"`
}

type HTTP struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	ThingID string `yaml:"thing_id"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
	Queue   int    `yaml:"queue"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Display struct {
	Enabled bool `yaml:"enabled"`
}

// NewZeroConfig returns a zero config
// it is the "default"
func NewZeroConfig() Config {
	det := detect.DefaultConfig()

	return Config{
		Input: Input{
			SampleRate:      8000,
			OverflowCeiling: dsp.DefaultOverflowCeiling.String(),
		},
		Pipeline: Pipeline{
			FrameSize:      int(dsp.DefaultSize),
			Transform:      string(fft.DefaultBackend),
			Window:         "hann",
			SuppressedBins: dsp.DefaultSuppressedBins,
			MatchHistory:   64,
		},
		Training: Training{
			BaselineFraction: dsp.DefaultBaselineFraction,
			Signal:           "usr1",
		},
		Detector: Detector{
			MatchThreshold:      det.MatchThreshold,
			DetectionMinTime:    det.DetectionMinTime.String(),
			InUseReleaseTime:    det.InUseReleaseTime.String(),
			SpikeWaitingTimeout: det.SpikeWaitingTimeout.String(),
			SpikeReleaseTime:    det.SpikeReleaseTime.String(),
			SpuriousReleaseTime: det.SpuriousReleaseTime.String(),
		},
		MQTT: MQTT{
			Broker:       "ssl://mqtt.evrythng.com:443",
			ConnectRetry: "5s",
		},
		HTTP: HTTP{
			BaseURL: "https://api.evrythng.com",
			Timeout: "10s",
			Queue:   16,
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := NewZeroConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}

	return cfg, nil
}

// Sanitize cleans things up
func (cfg *Config) Sanitize() error {
	if cfg.Input.SampleRate < float64(cfg.Pipeline.FrameSize) {
		return errors.New("sample rate lower than frame size")
	}

	if err := dsp.Size(cfg.Pipeline.FrameSize).Validate(); err != nil {
		return err
	}

	if cfg.Pipeline.MatchHistory < 1 {
		cfg.Pipeline.MatchHistory = 1
	}

	if cfg.HTTP.Queue < 1 {
		cfg.HTTP.Queue = 1
	}

	if _, err := signalByName(cfg.Training.Signal); err != nil {
		return err
	}

	if _, err := window.Lookup(cfg.Pipeline.Window); err != nil {
		return err
	}

	switch fft.Backend(cfg.Pipeline.Transform) {
	case fft.Gonum, fft.GoDSP:
	default:
		return errors.Errorf("unknown transform %q", cfg.Pipeline.Transform)
	}

	if cfg.MQTT.Enabled && (cfg.MQTT.Broker == "" || cfg.MQTT.ThingID == "") {
		return errors.New("mqtt needs a broker and a thing id")
	}

	if cfg.HTTP.Enabled && (cfg.HTTP.BaseURL == "" || cfg.HTTP.ThingID == "") {
		return errors.New("http needs a base url and a thing id")
	}

	return nil
}

// Whisker converts cfg into the run configuration.
func (cfg *Config) Whisker() (whisker.Config, error) {
	out := whisker.NewZeroConfig()

	out.Backend = cfg.Input.Backend
	out.Device = cfg.Input.Device
	out.SampleRate = cfg.Input.SampleRate
	out.FrameSize = dsp.Size(cfg.Pipeline.FrameSize)
	out.Transform = fft.Backend(cfg.Pipeline.Transform)
	out.SuppressedBins = cfg.Pipeline.SuppressedBins
	out.FrameRate = cfg.Pipeline.FrameRate
	out.MatchHistory = cfg.Pipeline.MatchHistory
	out.BaselineFraction = cfg.Training.BaselineFraction
	out.MetricsAddr = cfg.Metrics.Addr

	var err error

	if out.Window, err = window.Lookup(cfg.Pipeline.Window); err != nil {
		return out, err
	}

	if out.OverflowCeiling, err = duration("input.overflow_ceiling", cfg.Input.OverflowCeiling); err != nil {
		return out, err
	}

	sig, err := signalByName(cfg.Training.Signal)
	if err != nil {
		return out, err
	}
	if sig != nil {
		out.TrainingSignals = []os.Signal{sig}
	}

	if out.Detector, err = cfg.Detector.detect(); err != nil {
		return out, err
	}

	if cfg.MQTT.Enabled {
		retry, err := duration("mqtt.connect_retry", cfg.MQTT.ConnectRetry)
		if err != nil {
			return out, err
		}

		out.MQTT = &notify.MQTTConfig{
			Broker:       cfg.MQTT.Broker,
			ThingID:      cfg.MQTT.ThingID,
			APIKey:       cfg.MQTT.APIKey,
			QoS:          cfg.MQTT.QoS,
			Retain:       cfg.MQTT.Retain,
			ConnectRetry: retry,
		}
	}

	if cfg.HTTP.Enabled {
		timeout, err := duration("http.timeout", cfg.HTTP.Timeout)
		if err != nil {
			return out, err
		}

		out.HTTP = &notify.HTTPConfig{
			BaseURL: cfg.HTTP.BaseURL,
			ThingID: cfg.HTTP.ThingID,
			APIKey:  cfg.HTTP.APIKey,
			Timeout: timeout,
			Queue:   cfg.HTTP.Queue,
		}
	}

	return out, out.Validate()
}

func (d Detector) detect() (detect.Config, error) {
	out := detect.Config{MatchThreshold: d.MatchThreshold}

	fields := []struct {
		name string
		in   string
		out  *time.Duration
	}{
		{"detector.detection_min_time", d.DetectionMinTime, &out.DetectionMinTime},
		{"detector.in_use_release_time", d.InUseReleaseTime, &out.InUseReleaseTime},
		{"detector.spike_waiting_timeout", d.SpikeWaitingTimeout, &out.SpikeWaitingTimeout},
		{"detector.spike_release_time", d.SpikeReleaseTime, &out.SpikeReleaseTime},
		{"detector.spurious_release_time", d.SpuriousReleaseTime, &out.SpuriousReleaseTime},
	}

	for _, f := range fields {
		v, err := duration(f.name, f.in)
		if err != nil {
			return out, err
		}
		*f.out = v
	}

	return out, out.Validate()
}

func duration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "bad duration for %s", key)
	}

	return d, nil
}

func signalByName(name string) (os.Signal, error) {
	switch name {
	case "":
		return nil, nil
	case "usr1", "USR1", "SIGUSR1":
		return syscall.SIGUSR1, nil
	case "usr2", "USR2", "SIGUSR2":
		return syscall.SIGUSR2, nil
	}

	return nil, errors.Errorf("unsupported training signal %q", name)
}
