package config

import (
	"os"
	"strconv"
)

type Config struct {
	Database    DatabaseConfig
	Redis       RedisConfig
	Reservation ReservationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ReservationConfig carries the lifecycle knobs: how long a pending
// reservation stays valid, how often the reaper runs and how many tickets a
// single reservation may hold.
type ReservationConfig struct {
	ValidityMinutes          int
	ReaperIntervalSeconds    int
	MaxTicketsPerReservation int
}

var AppConfig *Config

func LoadConfig() *Config {
	AppConfig = &Config{
		Database:    GetDatabaseConfig(),
		Redis:       GetRedisConfig(),
		Reservation: GetReservationConfig(),
	}
	return AppConfig
}

func LoadTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5433", // test DB runs on 5433
			User:     "postgres",
			Password: "postgres",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6380", // test Redis runs on 6380
			Password: "",
			DB:       1,
		},
		Reservation: ReservationConfig{
			ValidityMinutes:          25,
			ReaperIntervalSeconds:    1,
			MaxTicketsPerReservation: 5,
		},
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func GetReservationConfig() ReservationConfig {
	return ReservationConfig{
		ValidityMinutes:          getEnvInt("RESERVATION_VALIDITY_MINUTES", 25),
		ReaperIntervalSeconds:    getEnvInt("RESERVATION_REAPER_INTERVAL_SECONDS", 60),
		MaxTicketsPerReservation: getEnvInt("MAX_TICKETS_PER_RESERVATION", 5),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return parsed
}
