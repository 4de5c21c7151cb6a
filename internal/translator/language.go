package translator

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/unicode/bidi"

	"pptx-translator/internal/types"
)

// Language is a resolved translation target.
type Language struct {
	// Name is the English display name used in prompts, e.g. "French".
	Name string
	Tag  language.Tag
	RTL  bool
}

// rtlScripts are the right-to-left scripts in current use.
var rtlScripts = map[string]bool{
	"Arab": true, "Hebr": true, "Syrc": true, "Thaa": true, "Nkoo": true,
	"Adlm": true, "Rohg": true, "Samr": true, "Mand": true,
}

// knownLanguages are matched by English display name when the input is
// not a BCP 47 tag.
var knownLanguages = []string{
	"af", "am", "ar", "az", "be", "bg", "bn", "bs", "ca", "cs", "cy", "da",
	"de", "dv", "el", "en", "es", "et", "eu", "fa", "fi", "fil", "fr", "ga",
	"gl", "gu", "ha", "he", "hi", "hr", "hu", "hy", "id", "is", "it", "ja",
	"ka", "kk", "km", "kn", "ko", "ku", "ky", "lo", "lt", "lv", "mk", "ml",
	"mn", "mr", "ms", "my", "ne", "nl", "no", "pa", "pl", "ps", "pt", "ro",
	"ru", "sd", "si", "sk", "sl", "so", "sq", "sr", "sv", "sw", "ta", "te",
	"tg", "th", "tk", "tr", "ug", "uk", "ur", "uz", "vi", "yi", "zh",
	"zh-Hans", "zh-Hant",
}

var languageAliases = map[string]string{
	"farsi":                "fa",
	"simplified chinese":   "zh-Hans",
	"traditional chinese":  "zh-Hant",
	"mandarin":             "zh",
	"tagalog":              "fil",
	"brazilian portuguese": "pt-BR",
}

// ResolveLanguage accepts a language name ("Arabic", "french") or a BCP 47
// tag ("ar", "pt-BR") and reports whether its script is right-to-left.
func ResolveLanguage(s string) (Language, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Language{}, types.NewAppError(types.ErrInvalidInput, "target language is required", nil)
	}
	key := strings.ToLower(in)

	tag, ok := matchName(key)
	if !ok {
		if alias, found := languageAliases[key]; found {
			tag, ok = language.Make(alias), true
		}
	}
	if !ok {
		parsed, err := language.Parse(in)
		if err != nil || parsed == language.Und {
			return Language{}, types.NewAppErrorWithDetails(types.ErrInvalidInput, "unknown target language", in, err)
		}
		tag = parsed
	}

	name := display.English.Languages().Name(tag)
	if name == "" {
		name = in
	}
	return Language{Name: name, Tag: tag, RTL: IsRTL(tag)}, nil
}

func matchName(key string) (language.Tag, bool) {
	namer := display.English.Languages()
	for _, code := range knownLanguages {
		tag := language.Make(code)
		if strings.ToLower(namer.Name(tag)) == key {
			return tag, true
		}
	}
	return language.Und, false
}

// IsRTL reports whether the most likely script of tag is right-to-left.
func IsRTL(tag language.Tag) bool {
	script, conf := tag.Script()
	if conf == language.No {
		return false
	}
	return rtlScripts[script.String()]
}

// ContainsRTL reports whether s holds any strong right-to-left character.
func ContainsRTL(s string) bool {
	for _, r := range s {
		p, _ := bidi.LookupRune(r)
		if c := p.Class(); c == bidi.R || c == bidi.AL {
			return true
		}
	}
	return false
}
