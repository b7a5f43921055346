package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		CurrentDir      string `yaml:"current_dir"`
		PreloadedDir    string `yaml:"preloaded_dir"`
		ConferencesPath string `yaml:"conferences_path"`
		TTL             string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"auth"`
	Generator struct {
		Count             int     `yaml:"count"`
		MaxAttempts       int     `yaml:"max_attempts"`
		SchoolsCSV        string  `yaml:"schools_csv"`
		SeasonStart       int     `yaml:"season_start"`
		SeasonEnd         int     `yaml:"season_end"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"generator"`
}

// Load reads YAML config from path and fills in defaults for the quiz
// directories and generator settings.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a config with only defaults applied, for running without
// a config file.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Quiz.CurrentDir == "" {
		c.Quiz.CurrentDir = "data/current_quiz"
	}
	if c.Quiz.PreloadedDir == "" {
		c.Quiz.PreloadedDir = "data/preloaded_quizzes"
	}
	if c.Quiz.ConferencesPath == "" {
		c.Quiz.ConferencesPath = "data/college_confs.json"
	}
	if c.Generator.Count == 0 {
		c.Generator.Count = 30
	}
	if c.Generator.MaxAttempts == 0 {
		// The upstream API occasionally serves games with incomplete
		// lineups; the cap keeps a bad run from spinning forever.
		c.Generator.MaxAttempts = 2000
	}
	if c.Generator.SchoolsCSV == "" {
		c.Generator.SchoolsCSV = "data/ncaa_d1_schools.csv"
	}
	if c.Generator.SeasonStart == 0 {
		c.Generator.SeasonStart = 2010
	}
	if c.Generator.SeasonEnd == 0 {
		c.Generator.SeasonEnd = 2024
	}
	if c.Generator.RequestsPerSecond == 0 {
		c.Generator.RequestsPerSecond = 1.5
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
