package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	TelegramToken  string
	DBDSN          string
	Storage        string
	Environment    string
	StaffTelegram  []int64
	StudioTimezone string
	MetricsAddr    string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из getenv, удобно для тестов
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:          getenv("DB_DSN"),
		TelegramToken:  getenv("TELEGRAM_TOKEN"),
		Storage:        getenv("STORAGE"),
		Environment:    getenv("ENV"),
		StudioTimezone: getenv("STUDIO_TIMEZONE"),
		MetricsAddr:    getenv("METRICS_ADDR"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}
	if cfg.StudioTimezone == "" {
		cfg.StudioTimezone = "UTC"
	}
	switch cfg.MetricsAddr {
	case "":
		cfg.MetricsAddr = ":9090"
	case "off":
		cfg.MetricsAddr = ""
	}

	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}

	if _, err := time.LoadLocation(cfg.StudioTimezone); err != nil {
		return nil, fmt.Errorf("load STUDIO_TIMEZONE: %w", err)
	}

	staff, err := parseIDs(getenv("STAFF_TELEGRAM_IDS"))
	if err != nil {
		return nil, fmt.Errorf("parse STAFF_TELEGRAM_IDS: %w", err)
	}
	cfg.StaffTelegram = staff

	return cfg, nil
}

// Location часовой пояс студии, валидность проверена в FromEnv
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudioTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsStaff проверяет, входит ли Telegram ID в список сотрудников
func (c *Config) IsStaff(telegramID int64) bool {
	for _, id := range c.StaffTelegram {
		if id == telegramID {
			return true
		}
	}
	return false
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
