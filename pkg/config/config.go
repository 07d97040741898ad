// Package config loads the adapter's YAML configuration and supplemental
// .env file. The mandatory NETWORK environment variable selects
// config.<network>.yaml; this mirrors the env-selected
// viper.Load(env)/AppConfig idiom used throughout this module, retargeted
// at this adapter's wallets/gateway/gas-service/RPC/gas-estimate shape.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ton-gmp-adapter/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// WalletConfig is one entry of the wallets[] block.
type WalletConfig struct {
	PublicKey   string `mapstructure:"public_key" json:"public_key"`
	SecretKey   string `mapstructure:"secret_key" json:"secret_key"`
	SubwalletID uint32 `mapstructure:"subwallet_id" json:"subwallet_id"`
	TimeoutS    uint64 `mapstructure:"timeout" json:"timeout"`
	Address     string `mapstructure:"address" json:"address"`
}

// GasEstimatesConfig is the gas_estimates block; ApproveMessages
// and HighloadWallet are per-unit coefficients scaled by n at call time (see
// gas.Estimates, gas/estimator.go).
type GasEstimatesConfig struct {
	NativeGasRefund               uint64 `mapstructure:"native_gas_refund" json:"native_gas_refund"`
	NativeGasRefundStorageSlippage uint64 `mapstructure:"native_gas_refund_storage_slippage" json:"native_gas_refund_storage_slippage"`
	Execute                       uint64 `mapstructure:"execute" json:"execute"`
	ExecuteStorageSlippage        uint64 `mapstructure:"execute_storage_slippage" json:"execute_storage_slippage"`
	ApproveMessages               uint64 `mapstructure:"approve_messages" json:"approve_messages"`
	HighloadWallet                uint64 `mapstructure:"highload_wallet" json:"highload_wallet"`
}

// CommonConfig is the common_config block inherited from the broader
// deployment: queue transport address, relational store DSN, lock backend
// DSN, and the chain name this adapter reports as destination_chain.
type CommonConfig struct {
	QueueAddr   string `mapstructure:"queue_address" json:"queue_address"`
	PostgresURL string `mapstructure:"postgres_url" json:"postgres_url"`
	RedisURL    string `mapstructure:"redis_url" json:"redis_url"`
	ChainName   string `mapstructure:"chain_name" json:"chain_name"`
}

// Config is the unified configuration for one network deployment of the
// adapter, mirroring config.<network>.yaml.
type Config struct {
	Wallets       []WalletConfig     `mapstructure:"wallets" json:"wallets"`
	TonGateway    string             `mapstructure:"ton_gateway" json:"ton_gateway"`
	TonGasService string             `mapstructure:"ton_gas_service" json:"ton_gas_service"`
	TonRPC        string             `mapstructure:"ton_rpc" json:"ton_rpc"`
	TonAPIKey     string             `mapstructure:"ton_api_key" json:"ton_api_key"`
	GasEstimates  GasEstimatesConfig `mapstructure:"gas_estimates" json:"gas_estimates"`
	CommonConfig  CommonConfig       `mapstructure:"common_config" json:"common_config"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads config.<network>.yaml (env may be empty to load just
// config.yaml) from "." or "./config", and any supplemental .env file,
// storing the result in AppConfig and returning it.
func Load(env string) (*Config, error) {
	_ = godotenv.Load() // optional supplemental .env; absence is not an error

	name := "config"
	if env != "" {
		name = "config." + env
	}
	viper.SetConfigName(name)
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, fmt.Sprintf("load %s.yaml", name))
	}

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	AppConfig = cfg
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the mandatory NETWORK environment
// variable (Environment). It is an error for NETWORK to be
// unset: the adapter cannot guess which chain deployment to talk to.
func LoadFromEnv() (*Config, error) {
	network := utils.EnvOrDefault("NETWORK", "")
	if network == "" {
		return nil, fmt.Errorf("config: NETWORK environment variable is required")
	}
	return Load(network)
}
