package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/egaotan/solana-router/aggregator"
	"github.com/egaotan/solana-router/program"
)

const (
	envPrefix = "router"
)

var (
	DefaultCustodySeed = "router_sa"
	ServerLog          = "server"
	RouterLog          = "router"
	StoreLog           = "store"
)

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type NodeConfig struct {
	Rpc     string        `mapstructure:"rpc"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RouterConfig struct {
	ProgramId   solana.PublicKey `mapstructure:"program_id"`
	CustodySeed string           `mapstructure:"custody_seed"`
	DefaultMode string           `mapstructure:"default_mode"`
}

type SandboxConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// PayerFunding is the raw token amount seeded into each payer account.
	PayerFunding uint64 `mapstructure:"payer_funding"`
	// PayerLamports funds the payer wallet.
	PayerLamports uint64 `mapstructure:"payer_lamports"`
}

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Node     NodeConfig     `mapstructure:"node"`
	Router   RouterConfig   `mapstructure:"router"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
}

// Load reads the YAML file at path, then applies ROUTER_* environment
// overrides. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %q not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "solana-router")
	v.SetDefault("app.listen", ":8080")
	v.SetDefault("app.shutdown_timeout", "5s")

	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file::memory:?cache=shared")

	v.SetDefault("node.rpc", "https://api.mainnet-beta.solana.com")
	v.SetDefault("node.timeout", "10s")

	v.SetDefault("router.program_id", program.Router.String())
	v.SetDefault("router.custody_seed", DefaultCustodySeed)
	v.SetDefault("router.default_mode", "toc")

	v.SetDefault("sandbox.enabled", true)
	v.SetDefault("sandbox.payer_funding", 100_000_000_000)
	v.SetDefault("sandbox.payer_lamports", 10_000_000_000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToPublicKeyHookFunc(),
		)
	}
}

func stringToPublicKeyHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(solana.PublicKey{}) {
			return data, nil
		}
		key, err := solana.PublicKeyFromBase58(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid public key %q: %w", data, err)
		}
		return key, nil
	}
}

func (c *Config) Validate() error {
	if c.App.Listen == "" {
		return errors.New("app.listen is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("database.driver %q is not sqlite or mysql", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Router.ProgramId.IsZero() {
		return errors.New("router.program_id is required")
	}
	if c.Router.CustodySeed == "" || len(c.Router.CustodySeed) > solana.MaxSeedLength {
		return fmt.Errorf("router.custody_seed must be 1..%d bytes", solana.MaxSeedLength)
	}
	if _, err := aggregator.ParseMode(c.Router.DefaultMode); err != nil {
		return fmt.Errorf("router.default_mode: %w", err)
	}
	return nil
}
