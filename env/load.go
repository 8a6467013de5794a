// Package env loads process configuration from the environment (and, in
// DEV mode, from a .env file) and configures the global logger.
package env

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const TimeFormat = "20060102-150405.000"

var (
	Mode         string // DEV or PROD
	Port         string
	WebPrefix    string
	PublicIP     string
	RecordingsDir string
	LogFile      string
	LogLevel     int
	LogStdout    bool

	AllowedOrigins []string
	STUNServerURLs []string
)

func getenvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	Mode = getenvOr("CC_MODE", "PROD")
	if Mode == "DEV" {
		if err := godotenv.Load(".env"); err != nil {
			log.Warn().Err(err).Msg("no_dotenv_file")
		}
	}

	if rawIP := os.Getenv("CC_PUBLIC_IP"); rawIP != "" {
		if net.ParseIP(rawIP) == nil {
			log.Fatal().Str("value", rawIP).Msg("invalid_public_ip")
		}
		PublicIP = rawIP
	}

	Port = getenvOr("CC_PORT", "8100")
	WebPrefix = getenvOr("CC_WEB_PREFIX", "")
	RecordingsDir = getenvOr("CC_RECORDINGS_DIR", "./recordings")
	LogFile = os.Getenv("CC_LOG_FILE")
	LogStdout = strings.EqualFold(os.Getenv("CC_LOG_STDOUT"), "true")

	var err error
	LogLevel, err = strconv.Atoi(os.Getenv("CC_LOG_LEVEL"))
	if err != nil {
		LogLevel = 2
	}

	if origins := os.Getenv("CC_ALLOWED_ORIGINS"); origins != "" {
		AllowedOrigins = strings.Split(origins, ",")
	}
	if Mode == "DEV" {
		AllowedOrigins = append(AllowedOrigins, "http://localhost:"+Port, "http://localhost:8180")
	}

	if urls := os.Getenv("CC_STUN_SERVER_URLS"); urls == "false" {
		STUNServerURLs = []string{}
	} else if urls != "" {
		STUNServerURLs = strings.Split(urls, ",")
	} else {
		STUNServerURLs = []string{"stun:stun.l.google.com:19302"}
	}

	configureGlobalLogger(LogLevel)
}
