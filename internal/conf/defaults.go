package conf

import "github.com/spf13/viper"

// Capture defaults match what the server transcription service expects.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
)

// setDefaults registers every setting's default value with viper.
func setDefaults() {
	viper.SetDefault("debug", false)

	viper.SetDefault("scribe.baseurl", "http://localhost:8799")
	viper.SetDefault("scribe.apikey", "")
	viper.SetDefault("scribe.timeout", 60)

	viper.SetDefault("trials.baseurl", "https://clinicaltrials.gov/api/v2")
	viper.SetDefault("trials.maxresults", 10)
	viper.SetDefault("trials.cachettlminutes", 15)
	viper.SetDefault("trials.fallbackenabled", true)

	viper.SetDefault("capture.device", "")
	viper.SetDefault("capture.samplerate", DefaultSampleRate)
	viper.SetDefault("capture.channels", DefaultChannels)

	viper.SetDefault("operator.doctorname", "")
	viper.SetDefault("operator.namevisibility", "first")

	viper.SetDefault("output.sqlitepath", "deeperscribe.db")

	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.address", ":8080")

	viper.SetDefault("log.dir", "logs")
	viper.SetDefault("log.debug", false)
}

// defaultSettings returns a Settings populated with defaults only.
func defaultSettings() *Settings {
	return &Settings{
		Scribe: ServiceSettings{
			BaseURL: "http://localhost:8799",
			Timeout: 60,
		},
		Trials: TrialsSettings{
			BaseURL:         "https://clinicaltrials.gov/api/v2",
			MaxResults:      10,
			CacheTTLMinutes: 15,
			FallbackEnabled: true,
		},
		Capture: CaptureSettings{
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
		},
		Operator: OperatorSettings{
			NameVisibility: "first",
		},
		Output: OutputSettings{
			SQLitePath: "deeperscribe.db",
		},
		Web: WebSettings{
			Enabled: true,
			Address: ":8080",
		},
		Log: LogSettings{
			Dir: "logs",
		},
	}
}
