package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config is read from the environment once at startup and injected into
// constructors; nothing re-reads the environment per request.
type Config struct {
	ServerAddr string

	PGHost   string
	PGPort   int
	PGUser   string
	PGPass   string
	PGDBName string

	GoogleAPIKey   string
	EmbeddingModel string
	ChatModel      string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Load fails fast with every missing required variable named, instead of
// failing opaquely on the first request.
func Load() (Config, error) {
	cfg := Config{
		ServerAddr:     envOr("SERVER_ADDR", ":3005"),
		PGHost:         os.Getenv("PG_HOST"),
		PGUser:         os.Getenv("PG_USER"),
		PGPass:         os.Getenv("PG_PASS"),
		PGDBName:       os.Getenv("PG_DB_NAME"),
		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		EmbeddingModel: envOr("EMBEDDING_MODEL", "text-embedding-004"),
		ChatModel:      envOr("CHAT_MODEL", "gemini-2.5-flash"),
	}

	var missing []string
	for name, value := range map[string]string{
		"PG_HOST":        cfg.PGHost,
		"PG_USER":        cfg.PGUser,
		"PG_PASS":        cfg.PGPass,
		"PG_DB_NAME":     cfg.PGDBName,
		"GOOGLE_API_KEY": cfg.GoogleAPIKey,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.PGPort, err = intEnv("PG_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.ChunkSize, err = intEnv("CHUNK_SIZE", 1200); err != nil {
		return Config{}, err
	}
	if cfg.ChunkOverlap, err = intEnv("CHUNK_OVERLAP", 200); err != nil {
		return Config{}, err
	}
	if cfg.TopK, err = intEnv("RETRIEVE_TOP_K", 5); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.PGHost, c.PGPort, c.PGUser, c.PGPass, c.PGDBName)
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", name, v)
	}
	return n, nil
}
