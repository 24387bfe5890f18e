package main

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
)

// FullNodeConfig keeps every field as text (or a viper-native scalar),
// matching the teacher's BridgeServerConfig: easy to load from an env var
// or a config file, hard to typo across the two.
type FullNodeConfig struct {
	Network         string // "mainnet", "testnet3", or "regtest"
	DbFilePath      string
	HttpIp          string
	HttpPort        string
	MinRelayFeeRate int64
	LogLevel        string // debug, info, or production
}

// ChainParams resolves Network into the chaincfg.Params the RPC layer's
// address/script decoding runs against, defaulting to regtest the same
// way the teacher's PrepareBridgeServerConfig defaults BTC_CHAIN_CONFIG.
func (c *FullNodeConfig) ChainParams() *chaincfg.Params {
	switch c.Network {
	case "testnet3":
		return &chaincfg.TestNet3Params
	case "mainnet":
		return &chaincfg.MainNetParams
	default:
		return &chaincfg.RegressionNetParams
	}
}

const (
	envDbFilePath      = "DB_FILE_PATH"
	envHttpIp          = "HTTP_IP"
	envHttpPort        = "HTTP_PORT"
	envNetwork         = "BTC_CHAIN_CONFIG"
	envMinRelayFeeRate = "MIN_RELAY_FEE_RATE"
	envLogLevel        = "LOG_LEVEL"
)

// PrepareFullNodeConfig reads viper-backed configuration (already loaded
// from a file or the environment by the caller) into a FullNodeConfig.
func PrepareFullNodeConfig() *FullNodeConfig {
	minFeeRate := viper.GetInt64(envMinRelayFeeRate)
	if minFeeRate == 0 {
		minFeeRate = 1000
	}
	return &FullNodeConfig{
		Network:         viper.GetString(envNetwork),
		DbFilePath:      viper.GetString(envDbFilePath),
		HttpIp:          viper.GetString(envHttpIp),
		HttpPort:        viper.GetString(envHttpPort),
		MinRelayFeeRate: minFeeRate,
		LogLevel:        viper.GetString(envLogLevel),
	}
}
