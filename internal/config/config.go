package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"qr-dashboard/internal/esp32"

	"gopkg.in/yaml.v3"
)

// DeviceHostEnv names the only environment variable the dashboard reads
const DeviceHostEnv = "ESP32_IP"

// Config holds application configuration
type Config struct {
	Server struct {
		Host  string `yaml:"host"`
		Port  string `yaml:"port"`
		Debug bool   `yaml:"debug"`
	} `yaml:"server"`

	Device struct {
		Host string `yaml:"host"` // overridden by ESP32_IP
	} `yaml:"device"`

	Metrics struct {
		Addr string `yaml:"addr"` // empty disables the metrics listener
	} `yaml:"metrics"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	config := &Config{}
	config.setDefaults()
	config.applyEnv()
	return config
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.setDefaults()
	config.applyEnv()

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}

	if c.Device.Host == "" {
		c.Device.Host = esp32.DefaultHost
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if host := strings.TrimSpace(os.Getenv(DeviceHostEnv)); host != "" {
		c.Device.Host = host
	}
}

// Addr returns the dashboard listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
