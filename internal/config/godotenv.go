package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// GodotenvProvider is an env-file reading implementation using [godotenv].
type GodotenvProvider struct{}

// Read reads the given env files into a key-value map.
func (*GodotenvProvider) Read(filenames ...string) (map[string]string, error) {
	data, err := godotenv.Read(filenames...)
	if err != nil {
		return nil, fmt.Errorf("(config-godotenv) %w", err)
	}

	return data, nil
}
