package tts

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Defaults preserved from the tool's original target: Mandarin narration
// with MP3 output.
const (
	DefaultLanguageCode  = "cmn-CN"
	DefaultVoiceName     = "cmn-CN-Standard-A"
	DefaultAudioEncoding = "MP3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// VoiceConfig selects the voice and audio output for a synthesis request.
// It is validated at construction; unknown or out-of-range combinations are
// rejected here rather than deferred to a backend error.
type VoiceConfig struct {
	// LanguageCode selects the locale and voice family, e.g. "cmn-CN".
	LanguageCode string `toml:"language_code" json:"language_code" validate:"required"`
	// VoiceName selects a specific named voice within the family.
	VoiceName string `toml:"voice_name" json:"voice_name,omitempty"`
	// Gender is a voice gender hint, honored when VoiceName is unset.
	Gender string `toml:"gender" json:"gender,omitempty" validate:"omitempty,oneof=NEUTRAL MALE FEMALE"`
	// SpeakingRate is a playback speed multiplier. Zero means backend default.
	SpeakingRate float64 `toml:"speaking_rate" json:"speaking_rate,omitempty" validate:"omitempty,gte=0.25,lte=4"`
	// AudioEncoding selects the output container/codec.
	AudioEncoding string `toml:"audio_encoding" json:"audio_encoding" validate:"required,oneof=MP3 LINEAR16 OGG_OPUS"`
}

// DefaultVoiceConfig returns the stock Mandarin voice configuration.
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		LanguageCode:  DefaultLanguageCode,
		VoiceName:     DefaultVoiceName,
		AudioEncoding: DefaultAudioEncoding,
	}
}

// Validate checks the configuration against the recognized field values.
func (v VoiceConfig) Validate() error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("tts: invalid voice config: %w", err)
	}
	return nil
}

// FileExtension returns the artifact extension for the configured encoding.
func (v VoiceConfig) FileExtension() string {
	switch v.AudioEncoding {
	case "LINEAR16":
		return "wav"
	case "OGG_OPUS":
		return "ogg"
	default:
		return "mp3"
	}
}

// LoadVoiceFile reads a VoiceConfig from a TOML file. Unknown keys are
// rejected. Fields absent from the file keep the values already set on base,
// so CLI flags and defaults survive a partial file.
func LoadVoiceFile(path string, base VoiceConfig) (VoiceConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
	if err != nil {
		return VoiceConfig{}, fmt.Errorf("tts: read voice config: %w", err)
	}

	cfg := base
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return VoiceConfig{}, fmt.Errorf("tts: parse voice config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return VoiceConfig{}, err
	}
	return cfg, nil
}
