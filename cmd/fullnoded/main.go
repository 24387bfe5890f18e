// Command fullnoded runs the RPC command layer as a standalone HTTP
// service: viper-loaded configuration, logrus logging, gin transport,
// wired the way the teacher's cmd/server_cmd bootstraps the bridge
// server.
package main

import (
	"fmt"

	"github.com/spf13/viper"
)

const envConfigFilePath = "FULLNODED_CONFIG"

func main() {
	viper.AutomaticEnv()

	configFile := viper.GetString(envConfigFilePath)
	if configFile != "" {
		if !fileExists(configFile) {
			fmt.Printf("fullnoded configuration file not found: %s\n", configFile)
			return
		}
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Printf("error reading configuration file: %v\n", err)
			return
		}
	}

	cfg := PrepareFullNodeConfig()
	if cfg.DbFilePath == "" {
		cfg.DbFilePath = "fullnode.db"
	}
	if cfg.HttpIp == "" {
		cfg.HttpIp = "0.0.0.0"
	}
	if cfg.HttpPort == "" {
		cfg.HttpPort = "8332"
	}

	node, err := NewFullNode(cfg)
	if err != nil {
		fmt.Printf("failed to start fullnoded: %v\n", err)
		return
	}

	fmt.Println("Starting fullnoded... press Ctrl+C to stop")
	node.StartAndWait(cfg)
}
