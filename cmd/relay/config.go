package main

import "time"

type Config struct {
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	MaxBodyLength             int           `env:"MAX_BODY_LENGTH,default=2000"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	LimitMessages             *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,default=5s"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,default=2s"`
	HeartbeatInterval         time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	StorageGCInterval         time.Duration `env:"STORAGE_GC_INTERVAL,default=5m"`
	AuthTokenDuration         time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	JWTSecret                 string        `env:"JWT_SECRET,required=true"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
