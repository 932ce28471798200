package config

import (
	"log/slog"

	"github.com/spf13/viper"
)

// Load sets server defaults and merges an optional config file on top.
// A missing file is fine; defaults plus environment are enough to run.
func Load(configFilePath string) {
	viper.SetDefault("addr", ":3000")
	viper.SetDefault("loglevel", "info")

	viper.SetEnvPrefix("chat")
	viper.AutomaticEnv()

	if configFilePath == "" {
		return
	}
	viper.SetConfigFile(configFilePath)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("no config file found", "configFilePath", configFilePath)
		} else {
			slog.Error("error during config read", "err", err)
			panic(err)
		}
	}
}
