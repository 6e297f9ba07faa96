package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Validator is implemented by config structs that can check their own
// invariants after binding.
type Validator interface {
	Validate() error
}

// Config wraps a viper instance with typed binding and optional
// file watching.
type Config struct {
	instance   *viper.Viper
	opts       Options
	watchOnce  sync.Once
	watchMutex sync.RWMutex
}

// Options controls where configuration files are loaded from and how
// changes are observed.
type Options struct {
	// BasePath is the directory searched for configuration files.
	BasePath string
	// FileName is the base file name without extension.
	FileName string
	// FileType is the file extension and viper config type (yaml, toml, json).
	FileType string
	// EnvPrefix, when set, namespaces environment variable overrides.
	EnvPrefix string
	// WatchAble enables rebinding when the config file changes on disk.
	WatchAble bool
	// OnChange is invoked after a successful rebind triggered by a file change.
	OnChange func(e fsnotify.Event)
}
