package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type PaymentConfig struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	PaymentDB  `yaml:"payment_db"`
	LogConfig  `yaml:"log_config"`
	Kafka      `yaml:"kafka"`
	Bitcore    `yaml:"bitcore"`
	Vault      `yaml:"vault"`
	Authy      `yaml:"authy"`
	Bitcoin    `yaml:"bitcoin"`
	Metrics    `yaml:"metrics"`
	Migrations `yaml:"migrations"`
}

type HTTPServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"8080"`
}

type PaymentDB struct {
	Dsn string `yaml:"dsn" env:"PAYMENT_DB_DSN"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
}

type Bitcore struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout" env-default:"15s"`
}

type Vault struct {
	Address string        `yaml:"address"`
	Token   string        `yaml:"token" env:"VAULT_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env-default:"30s"`
}

type Authy struct {
	BaseURL         string        `yaml:"base_url" env-default:"https://api.authy.com"`
	APIKey          string        `yaml:"api_key" env:"AUTHY_API_KEY"`
	SecondsToExpire int           `yaml:"seconds_to_expire" env-default:"600"`
	Timeout         time.Duration `yaml:"timeout" env-default:"10s"`
}

type Bitcoin struct {
	Network          string  `yaml:"network" env-default:"testnet3"`
	MaxFeePerByte    float64 `yaml:"max_fee_per_byte" env-default:"200"`
	MinConfirmations int64   `yaml:"min_confirmations" env-default:"1"`
}

type Metrics struct {
	Port string `yaml:"port" env-default:"9091"`
}

type Migrations struct {
	Path string `yaml:"path" env-default:"migrations"`
}

func MustLoad() *PaymentConfig {

	configPath := os.Getenv("PAYMENT_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("PAYMENT_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	var cfg PaymentConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
