package config

import (
	"os"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT" default:"3008"`
	Environment               string `mapstructure:"ENVIRONMENT" default:"development"`
	WebhookPublicURL          string `mapstructure:"WEBHOOK_PUBLIC_URL"`
	HTTPTimeoutSeconds        int    `mapstructure:"HTTP_TIMEOUT_SECONDS" default:"20"`
	BridgeDBHost              string `mapstructure:"BRIDGE_DB_HOST"`
	BridgeDBPort              string `mapstructure:"BRIDGE_DB_PORT"`
	BridgeDBName              string `mapstructure:"BRIDGE_DB_NAME"`
	BridgeDBUser              string `mapstructure:"BRIDGE_DB_USER"`
	BridgeDBPassword          string `mapstructure:"BRIDGE_DB_PASSWORD"`
	BridgeDBSSLMode           string `mapstructure:"BRIDGE_DB_SSL_MODE"`
	EvolutionAPIBaseURL       string `mapstructure:"EVOLUTION_API_BASE_URL"`
	EvolutionAPIKey           string `mapstructure:"EVOLUTION_API_KEY"`
	CRMAPIBaseURL             string `mapstructure:"CRM_API_BASE_URL"`
	CRMAPIVersion             string `mapstructure:"CRM_API_VERSION" default:"2021-04-15"`
	CRMClientID               string `mapstructure:"CRM_CLIENT_ID"`
	CRMClientSecret           string `mapstructure:"CRM_CLIENT_SECRET"`
	CRMConversationProviderID string `mapstructure:"CRM_CONVERSATION_PROVIDER_ID"`
	RedisAddr                 string `mapstructure:"REDIS_ADDR"`
	RedisPassword             string `mapstructure:"REDIS_PASSWORD"`
	RedisDB                   int    `mapstructure:"REDIS_DB"`
	RabbitMQUrl               string `mapstructure:"RABBITMQ_URL"`
	RabbitMQPort              string `mapstructure:"RABBITMQ_PORT" default:"5672"`
	RabbitMQUser              string `mapstructure:"RABBITMQ_USER"`
	RabbitMQPassword          string `mapstructure:"RABBITMQ_PASSWORD"`
	BridgeEventsExchange      string `mapstructure:"RABBITMQ_BRIDGE_EVENTS_EXCHANGE"`
	BridgeEventsQueue         string `mapstructure:"RABBITMQ_BRIDGE_EVENTS_QUEUE"`
	BridgeEventsRoutingKey    string `mapstructure:"RABBITMQ_BRIDGE_EVENTS_ROUTING_KEY"`
}

func LoadConfig(path string) *Config {
	var cfg Config
	viper.SetConfigName("app_config")
	viper.SetConfigType("env")
	viper.AddConfigPath(path)
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		// No .env file; read straight from the environment.
		cfg = Config{
			ServerPort:                os.Getenv("SERVER_PORT"),
			Environment:               os.Getenv("ENVIRONMENT"),
			WebhookPublicURL:          os.Getenv("WEBHOOK_PUBLIC_URL"),
			HTTPTimeoutSeconds:        atoiOrZero(os.Getenv("HTTP_TIMEOUT_SECONDS")),
			BridgeDBHost:              os.Getenv("BRIDGE_DB_HOST"),
			BridgeDBPort:              os.Getenv("BRIDGE_DB_PORT"),
			BridgeDBName:              os.Getenv("BRIDGE_DB_NAME"),
			BridgeDBUser:              os.Getenv("BRIDGE_DB_USER"),
			BridgeDBPassword:          os.Getenv("BRIDGE_DB_PASSWORD"),
			BridgeDBSSLMode:           os.Getenv("BRIDGE_DB_SSL_MODE"),
			EvolutionAPIBaseURL:       os.Getenv("EVOLUTION_API_BASE_URL"),
			EvolutionAPIKey:           os.Getenv("EVOLUTION_API_KEY"),
			CRMAPIBaseURL:             os.Getenv("CRM_API_BASE_URL"),
			CRMAPIVersion:             os.Getenv("CRM_API_VERSION"),
			CRMClientID:               os.Getenv("CRM_CLIENT_ID"),
			CRMClientSecret:           os.Getenv("CRM_CLIENT_SECRET"),
			CRMConversationProviderID: os.Getenv("CRM_CONVERSATION_PROVIDER_ID"),
			RedisAddr:                 os.Getenv("REDIS_ADDR"),
			RedisPassword:             os.Getenv("REDIS_PASSWORD"),
			RedisDB:                   atoiOrZero(os.Getenv("REDIS_DB")),
			RabbitMQUrl:               os.Getenv("RABBITMQ_URL"),
			RabbitMQPort:              os.Getenv("RABBITMQ_PORT"),
			RabbitMQUser:              os.Getenv("RABBITMQ_USER"),
			RabbitMQPassword:          os.Getenv("RABBITMQ_PASSWORD"),
			BridgeEventsExchange:      os.Getenv("RABBITMQ_BRIDGE_EVENTS_EXCHANGE"),
			BridgeEventsQueue:         os.Getenv("RABBITMQ_BRIDGE_EVENTS_QUEUE"),
			BridgeEventsRoutingKey:    os.Getenv("RABBITMQ_BRIDGE_EVENTS_ROUTING_KEY"),
		}
	} else {
		err = viper.Unmarshal(&cfg)
		if err != nil {
			return nil
		}
	}
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "3008"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		cfg.HTTPTimeoutSeconds = 20
	}
	if cfg.CRMAPIVersion == "" {
		cfg.CRMAPIVersion = "2021-04-15"
	}
	if cfg.RabbitMQPort == "" {
		cfg.RabbitMQPort = "5672"
	}
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
