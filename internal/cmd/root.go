// Package cmd wires the relay CLI.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hollis-m/relay/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Task-graph execution over a bounded endpoint pool",
	Long: `Relay validates task-dependency plans, schedules them into parallel
waves, and executes each task against a pool of capacity-bounded
endpoints. Plans that fail validation are retried with feedback;
runs the pipeline cannot complete fall back to direct execution.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/relay/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RELAY")
	// RELAY_ENGINE_MAX_CONCURRENT overrides engine.max_concurrent, and so on.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}
