// config.go: settings struct and functions to load and save application settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ServiceSettings holds connection settings for the language-model backed
// scribe services (transcribe, format, extract, key moments).
type ServiceSettings struct {
	BaseURL string // base URL of the scribe service endpoints
	APIKey  string // bearer token for the scribe services
	Timeout int    // request timeout in seconds
}

// TrialsSettings holds clinical trial registry settings.
type TrialsSettings struct {
	BaseURL         string // registry endpoint, defaults to clinicaltrials.gov v2
	MaxResults      int    // default result cap for trial searches
	CacheTTLMinutes int    // registry response cache lifetime
	FallbackEnabled bool   // serve the canned dataset when the registry is down
}

// CaptureSettings holds audio capture settings for the recording selector.
type CaptureSettings struct {
	Device     string // capture device name, empty for system default
	SampleRate int    // capture sample rate in Hz
	Channels   int    // capture channel count
}

// OperatorSettings identifies the clinician running sessions.
type OperatorSettings struct {
	DoctorName     string // display name used when relabeling Doctor turns
	NameVisibility string // speaker label policy: none, first or always
}

// OutputSettings holds persistence settings.
type OutputSettings struct {
	SQLitePath string // path of the sqlite database file
}

// WebSettings holds the embedded HTTP API settings.
type WebSettings struct {
	Enabled bool
	Address string // listen address, e.g. ":8080"
}

// LogSettings holds logging configuration.
type LogSettings struct {
	Dir   string // directory for per-service log files
	Debug bool
}

// Settings is the root configuration object.
type Settings struct {
	Debug    bool
	Scribe   ServiceSettings
	Trials   TrialsSettings
	Capture  CaptureSettings
	Operator OperatorSettings
	Output   OutputSettings
	Web      WebSettings
	Log      LogSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Setting returns the global settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		settingsMutex.Lock()
		defer settingsMutex.Unlock()
		if settingsInstance == nil {
			settingsInstance = initSettings()
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetSettings returns the current settings instance without loading.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetSettings replaces the global settings instance. Intended for tests and
// for the CLI after flag binding.
func SetSettings(s *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = s
}

func initSettings() *Settings {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}
	viper.SetEnvPrefix("deeperscribe")
	viper.AutomaticEnv()

	settings := &Settings{}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigNotFound(err, &notFound) {
			fmt.Fprintf(os.Stderr, "error reading config file: %v\n", err)
		}
		// No config file is fine, defaults apply.
	}
	if err := viper.Unmarshal(settings); err != nil {
		fmt.Fprintf(os.Stderr, "error unmarshaling config: %v\n", err)
		return defaultSettings()
	}
	if err := ValidateSettings(settings); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return defaultSettings()
	}
	return settings
}

func asConfigNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return false
}

// configPaths returns candidate directories for the config file.
func configPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "deeperscribe"))
	}
	return paths
}

// SaveSettings writes the settings to the given path as YAML.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
