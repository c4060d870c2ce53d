package capability

import (
	"fmt"
	"strings"
)

// Capability is one of the fixed roles a package can fulfil.
type Capability string

// Capability constants for the registration "capability" field.
const (
	Translate  Capability = "translate"
	Dictionary Capability = "dictionary"
	OCR        Capability = "ocr"
	TTS        Capability = "tts"
	Vocabulary Capability = "vocabulary"
)

// All contains every recognized capability in display order.
var All = []Capability{Translate, Dictionary, OCR, TTS, Vocabulary}

// aliases maps alternate spellings found in the wild to a capability.
var aliases = map[string]Capability{
	"translation":    Translate,
	"dict":           Dictionary,
	"texttospeech":   TTS,
	"text-to-speech": TTS,
	"text_to_speech": TTS,
	"vocab":          Vocabulary,
}

// Parse maps a declared capability string to a Capability. Matching is
// case-insensitive and ignores surrounding whitespace.
func Parse(s string) (Capability, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range All {
		if string(c) == key {
			return c, nil
		}
	}
	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCapability, s)
}

// Valid reports whether c is a member of the closed capability set.
func (c Capability) Valid() bool {
	for _, known := range All {
		if c == known {
			return true
		}
	}
	return false
}

func (c Capability) String() string { return string(c) }

// Matches reports whether a package exposing c should be shown under the
// filter f. Dictionary packages are listed with translators.
func (c Capability) Matches(f Capability) bool {
	if c == f {
		return true
	}
	return f == Translate && c == Dictionary
}
