package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort          int    `mapstructure:"APP_PORT"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
	StorageBackend   string `mapstructure:"STORAGE_BACKEND"`
	DatabasePath     string `mapstructure:"DATABASE_PATH"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	ChatAPIURL       string `mapstructure:"CHAT_API_URL"`
	ChatAPIKey       string `mapstructure:"CHAT_API_KEY"`
	ChatModel        string `mapstructure:"CHAT_MODEL"`
	SystemPrompt     string `mapstructure:"SYSTEM_PROMPT"`
	Mem0APIURL       string `mapstructure:"MEM0_API_URL"`
	Mem0APIKey       string `mapstructure:"MEM0_API_KEY"`
	MemoryLimit      int    `mapstructure:"MEMORY_LIMIT"`
	CloudinaryCloud  string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinarySecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder string `mapstructure:"CLOUDINARY_FOLDER"`
	DefaultUserID    string `mapstructure:"DEFAULT_USER_ID"`
	TypingIntervalMS int    `mapstructure:"TYPING_INTERVAL_MS"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 3000)
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("STORAGE_BACKEND", "sqlite")
	viper.SetDefault("DATABASE_PATH", "/data/lumen.db")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("CHAT_API_URL", "http://localhost:11434")
	viper.SetDefault("CHAT_MODEL", "gpt-4o-mini")
	viper.SetDefault("SYSTEM_PROMPT", "You are a helpful AI assistant.")
	viper.SetDefault("MEM0_API_URL", "https://api.mem0.ai")
	viper.SetDefault("MEMORY_LIMIT", 3)
	viper.SetDefault("CLOUDINARY_FOLDER", "chat-uploads")
	viper.SetDefault("DEFAULT_USER_ID", "default-user")
	viper.SetDefault("TYPING_INTERVAL_MS", 15)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
