package msk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileEnv names a config file explicitly. It wins over the search.
const ConfigFileEnv = "MSK_CONFIG_FILE"

var ErrConfigNotFound = errors.New("msk: config file not found")

var configNames = []string{"msk.yaml", "msk.yml"}

// configDirs are searched in order: the working directory, its msk/
// subdirectory, then the same two next to the executable (the Lambda task
// root for a zip deployment).
func configDirs() []string {
	dirs := []string{".", "msk"}
	if exe, err := os.Executable(); err == nil {
		root := filepath.Dir(exe)
		dirs = append(dirs, root, filepath.Join(root, "msk"))
	}
	return dirs
}

// FindDefaultConfigFile returns the router config file to load, or
// ErrConfigNotFound.
func FindDefaultConfigFile() (string, error) {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s=%s: %w", ErrConfigNotFound, ConfigFileEnv, p, err)
		}
		return p, nil
	}

	for _, dir := range configDirs() {
		for _, name := range configNames {
			p := filepath.Join(dir, name)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
	}
	return "", ErrConfigNotFound
}

// WithDefaultConfigFile loads the config file found by FindDefaultConfigFile.
// With no file it returns nil and the environment or other options have to
// supply the queues. An MSK_CONFIG_FILE that does not exist panics.
func WithDefaultConfigFile() Option {
	p, err := FindDefaultConfigFile()
	if err != nil {
		if os.Getenv(ConfigFileEnv) != "" {
			return OptionFunc(func(*Options) {
				panic(fmt.Errorf("msk.WithDefaultConfigFile: %w", err))
			})
		}
		return nil
	}
	return WithConfigFile(p)
}
