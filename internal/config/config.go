package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"heistgame"`

	JWTSecret  string `env:"JWT_SECRET" envDefault:"super-secret-key-change-me"`
	BotAPIKey  string `env:"BOT_API_KEY" envDefault:"bot-api-key-change-me"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	ChatBaseURL string        `env:"CHAT_BASE_URL"`
	ChatToken   string        `env:"CHAT_TOKEN"`
	RoomRefresh time.Duration `env:"ROOM_REFRESH_INTERVAL" envDefault:"30s"`

	Heist HeistConfig `envPrefix:"HEIST_"`
}

// HeistConfig holds the timing knobs for the heist engine. Defaults match
// production cadence.
type HeistConfig struct {
	MinDelay       time.Duration `env:"MIN_DELAY" envDefault:"45m"`
	MaxDelay       time.Duration `env:"MAX_DELAY" envDefault:"90m"`
	AnnounceWindow time.Duration `env:"ANNOUNCE_WINDOW" envDefault:"2m"`
	VoteWindow     time.Duration `env:"VOTE_WINDOW" envDefault:"3m"`
	HeistDuration  time.Duration `env:"DURATION" envDefault:"5m"`
	Cooldown       time.Duration `env:"COOLDOWN" envDefault:"10m"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
