package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type ClassMultipliers struct {
	Economy  float64 `yaml:"economy"`
	Business float64 `yaml:"business"`
	First    float64 `yaml:"first"`
}

type BookingConfig struct {
	MaxPassengersPerBooking int              `yaml:"max_passengers_per_booking"`
	CutoffHours             int              `yaml:"booking_cutoff_hours"`
	SeatHoldTTLSeconds      int              `yaml:"seat_hold_ttl_seconds"`
	FlightsCacheTTLSeconds  int              `yaml:"flights_cache_ttl_seconds"`
	Multipliers             ClassMultipliers `yaml:"class_multipliers"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.MaxPassengersPerBooking == 0 {
		c.Booking.MaxPassengersPerBooking = 9
	}
	if c.Booking.CutoffHours == 0 {
		c.Booking.CutoffHours = 2
	}
	if c.Booking.SeatHoldTTLSeconds == 0 {
		c.Booking.SeatHoldTTLSeconds = 120
	}
	if c.Booking.FlightsCacheTTLSeconds == 0 {
		c.Booking.FlightsCacheTTLSeconds = 60
	}
	if c.Booking.Multipliers == (ClassMultipliers{}) {
		c.Booking.Multipliers = ClassMultipliers{Economy: 1.0, Business: 2.5, First: 5.0}
	}
}
