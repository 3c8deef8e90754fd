package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the hostel service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	JWTSecret        string
	TokenTTL         time.Duration
	PasswordHash     string
	BcryptCost       int
	CORSOrigins      []string
	AbsenceSweepCron string
	LogLevel         slog.Level
}

// LoadDotEnv seeds the process environment from the given files. Variables that
// are already set win, and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional keys fall back to defaults. Every missing or malformed key is
// collected so operators see the complete list in one error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:     5000,
		SQLiteDSN:    "hostel.db",
		TokenTTL:     7 * 24 * time.Hour,
		PasswordHash: "argon2id",
		BcryptCost:   10,
		CORSOrigins:  []string{"*"},
		LogLevel:     slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("HOSTEL_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "HOSTEL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := env("HOSTEL_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := env("HOSTEL_JWT_SECRET"); secret == "" {
		missing = append(missing, "HOSTEL_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if ttlValue := env("HOSTEL_TOKEN_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "HOSTEL_TOKEN_TTL")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if algorithm := strings.ToLower(env("HOSTEL_PASSWORD_HASH")); algorithm != "" {
		switch algorithm {
		case "argon2id", "bcrypt":
			cfg.PasswordHash = algorithm
		default:
			invalid = append(invalid, "HOSTEL_PASSWORD_HASH")
		}
	}

	if roundsValue := env("BCRYPT_SALT_ROUNDS"); roundsValue != "" {
		rounds, err := strconv.Atoi(roundsValue)
		if err != nil || rounds < 4 || rounds > 31 {
			invalid = append(invalid, "BCRYPT_SALT_ROUNDS")
		} else {
			cfg.BcryptCost = rounds
		}
	}

	if originsValue := env("HOSTEL_CORS_ORIGINS"); originsValue != "" {
		origins := make([]string, 0, 2)
		for _, origin := range strings.Split(originsValue, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	cfg.AbsenceSweepCron = env("HOSTEL_ABSENCE_SWEEP")

	if levelValue := env("HOSTEL_LOG_LEVEL"); levelValue != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "HOSTEL_LOG_LEVEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
