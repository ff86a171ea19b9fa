package main

import "time"

type Config struct {
	Host           string `env:"HOST,default=localhost"`
	Port           int    `env:"PORT,default=8080"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`

	AdminEmail string `env:"ADMIN_EMAIL,required=true"`
	JWTSecret  string `env:"JWT_SECRET,required=true"`

	// StoreEncryptionKey is a hex-encoded 32-byte key for at-rest
	// value encryption. Empty disables it.
	StoreEncryptionKey string `env:"STORE_ENCRYPTION_KEY"`

	MaxConnectionsPerUser int           `env:"MAX_CONNECTIONS_PER_USER,default=3"`
	ConnectionStaleness   time.Duration `env:"CONNECTION_STALENESS,default=60s"`
	HeartbeatInterval     time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`

	RetentionInterval     time.Duration `env:"RETENTION_INTERVAL,default=1h"`
	RetentionDays         int           `env:"RETENTION_DAYS"`
	MaxMessagesPerChannel int           `env:"MAX_MESSAGES_PER_CHANNEL"`
}
