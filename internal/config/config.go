package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/bigredeye/deposit/pkg/conf"
)

type Config struct {
	Endpoints struct {
		HostName string
		Api      string
	}

	Server struct {
		ListenAddress string
	}

	DataBase struct {
		Host string
		Port uint16
		User string
		Pass string
		Name string

		ConnectRetries uint64
	}

	Auth struct {
		SigningKey   string
		TokenTTL     time.Duration
		RoleCacheTTL time.Duration
	}

	Deposit struct {
		Initial      int
		DefendTokens int
	}

	Penalties struct {
		Missing int
		Lacking int
	}

	Telegram struct {
		BotToken string
		ChatID   int64
	}

	Log struct {
		File       string
		Production bool
	}
}

var defaults = map[string]interface{}{
	"endpoints.api":           "/api/deposit",
	"server.listenaddress":    ":8080",
	"database.port":           5432,
	"database.connectretries": 5,
	"auth.tokenttl":           "720h",
	"auth.rolecachettl":       "1m",
	"deposit.initial":         50000,
	"deposit.defendtokens":    1,
	"penalties.missing":       10000,
	"penalties.lacking":       5000,
}

func ParseConfig(path string) (*Config, error) {
	config := &Config{}
	if err := conf.ParseConfig(config, conf.EnvPrefix("DEPOSIT"), conf.File(path), conf.Defaults(defaults)); err != nil {
		return nil, errors.Wrap(err, "Failed to parse config")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Auth.SigningKey == "" {
		return errors.New("Auth.SigningKey is required")
	}
	if c.Deposit.Initial < 0 {
		return errors.Errorf("Deposit.Initial must not be negative, got %d", c.Deposit.Initial)
	}
	if c.Penalties.Missing < 0 || c.Penalties.Lacking < 0 {
		return errors.New("Penalties must not be negative")
	}
	return nil
}

func (c *Config) DataBaseDSN() string {
	return dsn(c.DataBase.Host, c.DataBase.Port, c.DataBase.User, c.DataBase.Pass, c.DataBase.Name)
}
