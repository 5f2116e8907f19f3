package cmd

import (
	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/pkg/db"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "app",
	Short: "Evolution API to LeadConnector message bridge",
	Long: `Bridges a self-hosted Evolution API WhatsApp gateway and the
LeadConnector conversation platform: messages, delivery statuses and
connection state flow between the two without a shared identifier scheme.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func bridgeDBConfig(conf *config.Config) db.DBConfig {
	return db.DBConfig{
		Host:     conf.BridgeDBHost,
		User:     conf.BridgeDBUser,
		Password: conf.BridgeDBPassword,
		DBName:   conf.BridgeDBName,
		Port:     conf.BridgeDBPort,
		SSLMode:  conf.BridgeDBSSLMode,
	}
}
