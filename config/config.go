package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is used when neither the config file nor API_URL set one.
const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	API      APIConfig      `yaml:"api"`
	Audio    AudioConfig    `yaml:"audio"`
	Playback PlaybackConfig `yaml:"playback"`
	Samples  SamplesConfig  `yaml:"samples"`
	Alert    AlertConfig    `yaml:"alert"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type APIConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type AudioConfig struct {
	Capture      string `yaml:"capture"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
	InputFormat  string `yaml:"input_format"`
	InputDevice  string `yaml:"input_device"`
	SampleRate   int    `yaml:"sample_rate"`
	ClipDir      string `yaml:"clip_dir"`
	StartupGrace string `yaml:"startup_grace"`
}

type PlaybackConfig struct {
	Command string `yaml:"command"`
}

type SamplesConfig struct {
	Dir string `yaml:"dir"`
}

type AlertConfig struct {
	Desktop bool `yaml:"desktop"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads .env, then the YAML file at path (expanding ${VARS}), then
// applies API_URL and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if url := os.Getenv("API_URL"); url != "" {
		cfg.API.URL = url
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.API.URL == "" {
		c.API.URL = DefaultAPIURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "60s"
	}
	if c.Audio.Capture == "" {
		c.Audio.Capture = "ffmpeg"
	}
	if c.Audio.FFmpegPath == "" {
		c.Audio.FFmpegPath = "ffmpeg"
	}
	if c.Audio.InputFormat == "" || c.Audio.InputDevice == "" {
		format, device := defaultInput(runtime.GOOS)
		if c.Audio.InputFormat == "" {
			c.Audio.InputFormat = format
		}
		if c.Audio.InputDevice == "" {
			c.Audio.InputDevice = device
		}
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 48000
	}
	if c.Audio.ClipDir == "" {
		c.Audio.ClipDir = "./clips"
	}
	if c.Audio.StartupGrace == "" {
		c.Audio.StartupGrace = "300ms"
	}
	if c.Samples.Dir == "" {
		c.Samples.Dir = "./samples"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func defaultInput(goos string) (format, device string) {
	switch goos {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

// Duration parses a configured duration, falling back when it is invalid.
func Duration(value string, fallback time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
