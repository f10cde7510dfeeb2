package conf

import "fmt"

// ValidateSettings checks configured values for consistency.
func ValidateSettings(settings *Settings) error {
	if settings.Trials.MaxResults < 1 || settings.Trials.MaxResults > 50 {
		return fmt.Errorf("trials.maxresults must be between 1 and 50, got %d", settings.Trials.MaxResults)
	}
	switch settings.Operator.NameVisibility {
	case "none", "first", "always":
	default:
		return fmt.Errorf("operator.namevisibility must be none, first or always, got %q", settings.Operator.NameVisibility)
	}
	if settings.Capture.SampleRate <= 0 {
		return fmt.Errorf("capture.samplerate must be positive, got %d", settings.Capture.SampleRate)
	}
	if settings.Capture.Channels < 1 || settings.Capture.Channels > 2 {
		return fmt.Errorf("capture.channels must be 1 or 2, got %d", settings.Capture.Channels)
	}
	if settings.Scribe.Timeout <= 0 {
		return fmt.Errorf("scribe.timeout must be positive, got %d", settings.Scribe.Timeout)
	}
	return nil
}
