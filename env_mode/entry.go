package env_mode

import (
	"os"
	"strings"
	"sync"
)

// ENV_MODE_KEY is the environment variable consulted to determine the
// running mode.
const ENV_MODE_KEY = "NEOCRATES_ENV"

type ENV_MODE string

const (
	DevMode  ENV_MODE = "development"
	ProMode  ENV_MODE = "production"
	TestMode ENV_MODE = "test"
)

var (
	currentEnv ENV_MODE
	modeOnce   sync.Once
)

// ParseEnv normalizes an environment string into one of the known modes.
// Unknown or empty values fall back to development.
func ParseEnv(env string) ENV_MODE {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode returns the current running mode, resolved once from the
// environment.
func Mode() ENV_MODE {
	modeOnce.Do(func() {
		currentEnv = ParseEnv(os.Getenv(ENV_MODE_KEY))
	})
	return currentEnv
}

// SetMode overrides the mode for the current process. It only takes
// effect before the first call to Mode.
func SetMode(mode ENV_MODE) {
	os.Setenv(ENV_MODE_KEY, string(mode))
}

// IsDev reports whether the current mode is development.
func IsDev() bool {
	return Mode() == DevMode
}

// IsProd reports whether the current mode is production.
func IsProd() bool {
	return Mode() == ProMode
}
