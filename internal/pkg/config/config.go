package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const defaultTimezone = "Asia/Bangkok"

type Config struct {
	DBUsername string `yaml:"db_username"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DisableTLS bool   `yaml:"disable_tls"`
	Debug      bool   `yaml:"debug"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	JWTKey      string   `yaml:"jwt_key"`
	MediaDir    string   `yaml:"media_dir"`
	CorsOrigins []string `yaml:"cors_origins"`

	// Timezone is the business timezone used for session buckets and the
	// times shown to operators.
	Timezone string `yaml:"timezone"`

	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

func NewConfig(path string) (*Config, error) {
	var c Config

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	if err = yaml.Unmarshal(yamlFile, &c); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	// Validate required fields
	if c.DBUsername == "" || c.DBPassword == "" || c.DBHost == "" || c.DBName == "" {
		return nil, errors.New("missing required database configuration")
	}
	if c.JWTKey == "" {
		return nil, errors.New("missing jwt_key")
	}

	if c.DBPort == "" {
		c.DBPort = "5432"
	}
	if c.MediaDir == "" {
		c.MediaDir = "./media"
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}

	if _, err := c.Location(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Location loads the business timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "loading timezone %q", c.Timezone)
	}
	return loc, nil
}
