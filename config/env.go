package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvRPCEndpoint   = "ARBSCAN_RPC_ENDPOINT"
	EnvChain         = "CHAIN" // polygon, fantom, milko
	EnvRedisAddr     = "ARBSCAN_REDIS_ADDR"
	EnvRedisPassword = "ARBSCAN_REDIS_PASSWORD"
)

// LoadEnv loads environment variables from the given .env files, defaulting
// to ./.env. Missing files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		existing = append(existing, file)
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func applyEnv(fc *FileConfig) {
	fc.RPCEndpoint = GetEnvWithDefault(EnvRPCEndpoint, fc.RPCEndpoint)
	fc.Redis.Addr = GetEnvWithDefault(EnvRedisAddr, fc.Redis.Addr)
	fc.Redis.Password = GetEnvWithDefault(EnvRedisPassword, fc.Redis.Password)
}
