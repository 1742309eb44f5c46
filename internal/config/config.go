// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Inference struct {
		URL            string `mapstructure:"url"`
		Model          string `mapstructure:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"inference"`
	Chat struct {
		HistoryWindow      int `mapstructure:"history_window"`
		ContextBudgetChars int `mapstructure:"context_budget_chars"`
	} `mapstructure:"chat"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.path", "APP_DATABASE_PATH")
	viper.BindEnv("inference.url", "APP_INFERENCE_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: config file not found, using defaults and environment variables")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// Defaults. The process must come up on a fresh device with no config
	// file at all.
	if Cfg.Server.Port == "" {
		Cfg.Server.Port = ":8080"
	}
	if Cfg.Database.Path == "" {
		Cfg.Database.Path = "tutor.db"
	}
	if Cfg.Inference.URL == "" {
		Cfg.Inference.URL = "http://127.0.0.1:11434/api/generate"
	}
	if Cfg.Inference.Model == "" {
		Cfg.Inference.Model = "gemma-3n-e4b-it"
	}
	if Cfg.Inference.TimeoutSeconds <= 0 {
		Cfg.Inference.TimeoutSeconds = 600
	}
	if Cfg.Chat.HistoryWindow <= 0 {
		Cfg.Chat.HistoryWindow = 10
	}
	if Cfg.Chat.ContextBudgetChars <= 0 {
		Cfg.Chat.ContextBudgetChars = 4000
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = "info"
	}

	log.Printf("Config loaded: port=%s db=%s inference=%s model=%s",
		Cfg.Server.Port, Cfg.Database.Path, Cfg.Inference.URL, Cfg.Inference.Model)
	return nil
}
