package services

import "fmt"

// Voice is a narrator voice identifier understood by the synthesis
// endpoints. The set is closed: unknown values are rejected at the system
// boundary instead of failing deep inside a request.
type Voice string

const (
	VoiceUSFemale1 Voice = "en_us_001"
	VoiceUSFemale2 Voice = "en_us_002"
	VoiceUSMale1   Voice = "en_us_006"
	VoiceUSMale2   Voice = "en_us_007"
	VoiceUSMale3   Voice = "en_us_009"
	VoiceUSMale4   Voice = "en_us_010"
	VoiceUKMale1   Voice = "en_uk_001"
	VoiceUKMale2   Voice = "en_uk_003"
	VoiceAUFemale1 Voice = "en_au_001"
	VoiceAUMale1   Voice = "en_au_002"
)

// voiceNames maps the config-facing names to wire identifiers.
var voiceNames = map[string]Voice{
	"US_FEMALE_1": VoiceUSFemale1,
	"US_FEMALE_2": VoiceUSFemale2,
	"US_MALE_1":   VoiceUSMale1,
	"US_MALE_2":   VoiceUSMale2,
	"US_MALE_3":   VoiceUSMale3,
	"US_MALE_4":   VoiceUSMale4,
	"UK_MALE_1":   VoiceUKMale1,
	"UK_MALE_2":   VoiceUKMale2,
	"AU_FEMALE_1": VoiceAUFemale1,
	"AU_MALE_1":   VoiceAUMale1,
}

var knownVoices = func() map[Voice]bool {
	m := make(map[Voice]bool, len(voiceNames))
	for _, v := range voiceNames {
		m[v] = true
	}
	return m
}()

// ParseVoice resolves a configured voice name (e.g. "US_MALE_1") or a raw
// wire identifier (e.g. "en_us_006") to a Voice.
func ParseVoice(name string) (Voice, error) {
	if v, ok := voiceNames[name]; ok {
		return v, nil
	}
	if knownVoices[Voice(name)] {
		return Voice(name), nil
	}
	return "", fmt.Errorf("%w: unrecognized voice %q", ErrInvalidInput, name)
}

// Valid reports whether v is a member of the closed voice set.
func (v Voice) Valid() bool {
	return knownVoices[v]
}
