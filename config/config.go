package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort   string
	DatabasePath string
	RoomsPath    string
	TissBaseURL  string
	FetchTimeout time.Duration
	SessionTTL   time.Duration
	Timezone     *time.Location
}

func Load() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/tisscal.db"
	}

	roomsPath := os.Getenv("ROOMS_PATH")
	if roomsPath == "" {
		roomsPath = "./resources/TU-Rooms.csv"
	}

	baseURL := os.Getenv("TISS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://tiss.tuwien.ac.at"
	}

	fetchTimeout := 5 * time.Second
	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("FETCH_TIMEOUT_SECONDS must be a positive number")
		}
		fetchTimeout = time.Duration(secs) * time.Second
	}

	sessionTTL := 3 * time.Hour
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("SESSION_TTL_HOURS must be a positive number")
		}
		sessionTTL = time.Duration(hours) * time.Hour
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Europe/Vienna"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	return &Config{
		ServerPort:   serverPort,
		DatabasePath: dbPath,
		RoomsPath:    roomsPath,
		TissBaseURL:  baseURL,
		FetchTimeout: fetchTimeout,
		SessionTTL:   sessionTTL,
		Timezone:     tz,
	}, nil
}
