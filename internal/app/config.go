package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/grading"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL          string `toml:"redis_url"`
		TokenHeader       string `toml:"token_header"`
		GraderKeyTemplate string `toml:"grader_key_template"`
		SupervisorKey     string `toml:"supervisor_key"`
	} `toml:"auth"`

	API struct {
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Grading grading.Engine `toml:"grading"`

	Teams struct {
		DefaultGradersPerTeam int `toml:"default_graders_per_team"`
	} `toml:"teams"`

	Display struct {
		TimestampFormat string `toml:"timestamp_format"`
	} `toml:"display"`

	Backup struct {
		Dir        string `toml:"dir"`
		Schedule   string `toml:"schedule"`
		KeepLatest int    `toml:"keep_latest"`
	} `toml:"backup"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	if config.Grading.Items == 0 {
		config.Grading.Items = 9
	}
	if config.Grading.BonusMax == 0 {
		config.Grading.BonusMax = 10
	}
	if config.Grading.PassThreshold == 0 {
		config.Grading.PassThreshold = 80
	}
	if config.Teams.DefaultGradersPerTeam == 0 {
		config.Teams.DefaultGradersPerTeam = 2
	}
	if config.Database.MigrationsDir == "" {
		config.Database.MigrationsDir = "./migrations"
	}

	logger.Debug.Printf("Loaded grading config: %+v", config.Grading)

	return &config, nil
}
