package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Log     LogConfig     `mapstructure:"log"`
	Network NetworkConfig `mapstructure:"network"`
	Tx      TxConfig      `mapstructure:"tx"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type NetworkConfig struct {
	ID            string `mapstructure:"id"`             // mainnet / testnet
	AddressPrefix string `mapstructure:"address_prefix"` // B62
}

type TxConfig struct {
	DefaultFee string `mapstructure:"default_fee"` // 显示单位
}

type WalletConfig struct {
	DerivationPath string `mapstructure:"derivation_path"`
	KeystoreScrypt int    `mapstructure:"keystore_scrypt_n"`
}

// EnvPrefix 环境变量前缀，例如 OFFLINE_SIGNER_NETWORK_ID=testnet
const EnvPrefix = "OFFLINE_SIGNER"

// Load 读取配置。path 为空时在默认位置查找 offline-signer.yaml，找不到则只用默认值和环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("offline-signer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.offline-signer")
	}

	// 环境变量设置
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回只包含默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("log.level", "warn")

	v.SetDefault("network.id", "mainnet")
	v.SetDefault("network.address_prefix", "B62")

	v.SetDefault("tx.default_fee", "0.01")

	v.SetDefault("wallet.derivation_path", "m/44'/12586'/0'/0/0")
	v.SetDefault("wallet.keystore_scrypt_n", 262144)
}

func (c *Config) validate() error {
	switch c.Network.ID {
	case "mainnet", "testnet":
	default:
		return fmt.Errorf("network.id must be mainnet or testnet, got %q", c.Network.ID)
	}
	if c.Network.AddressPrefix == "" {
		return errors.New("network.address_prefix must not be empty")
	}
	return nil
}
