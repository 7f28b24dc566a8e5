// config/config.go
package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:":5200"`
	DatabaseURL    string   `env:"DATABASE_URL,required,notEmpty"`
	GatewayToken   string   `env:"GAME_SERVICE_TOKEN,required,notEmpty"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	OracleURL           string        `env:"ORACLE_URL,required,notEmpty"`
	OracleServiceToken  string        `env:"ORACLE_SERVICE_TOKEN,required,notEmpty"`
	OracleCallbackToken string        `env:"ORACLE_CALLBACK_TOKEN"`
	CommitteeKeys       []string      `env:"ORACLE_COMMITTEE_KEYS,required,notEmpty" envSeparator:","`
	CommitteeThreshold  int           `env:"ORACLE_THRESHOLD,required,notEmpty"`
	EncryptionKey       string        `env:"ENCRYPTION_PUBLIC_KEY,required,notEmpty"`
	OraclePollInterval  time.Duration `env:"ORACLE_POLL_INTERVAL" envDefault:"0s"`

	PendingAuditInterval time.Duration `env:"PENDING_AUDIT_INTERVAL" envDefault:"5m"`
	PendingStaleAfter    time.Duration `env:"PENDING_STALE_AFTER" envDefault:"30m"`
	MatchScore           int64         `env:"MATCH_SCORE" envDefault:"100"`
	ProcessorQueueSize   int           `env:"PROCESSOR_QUEUE_SIZE" envDefault:"256"`

	R2 R2Config `envPrefix:"R2_"`
}

// R2Config configures the verified-match archive. Archiving is off when
// the bucket is empty.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	Bucket          string `env:"BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

func (r R2Config) Enabled() bool { return r.Bucket != "" }

// Load reads .env (if present) and parses the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.OracleCallbackToken == "" {
		cfg.OracleCallbackToken = cfg.OracleServiceToken
	}
	return &cfg, nil
}

// CommitteePublicKeys decodes the hex committee member keys.
func (c *Config) CommitteePublicKeys() ([][]byte, error) {
	return decodeHexList(c.CommitteeKeys)
}

// EncryptionPublicKey decodes the hex ElGamal public key.
func (c *Config) EncryptionPublicKey() ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(c.EncryptionKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_PUBLIC_KEY: %w", err)
	}
	return b, nil
}

func decodeHexList(values []string) ([][]byte, error) {
	out := make([][]byte, 0, len(values))
	for i, v := range values {
		v = strings.TrimPrefix(strings.TrimSpace(v), "0x")
		if v == "" {
			continue
		}
		b, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("ORACLE_COMMITTEE_KEYS[%d]: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}
