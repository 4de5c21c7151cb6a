package translator

import (
	"testing"

	"golang.org/x/text/language"

	"pptx-translator/internal/types"
)

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		in   string
		tag  string
		name string
		rtl  bool
	}{
		{"Arabic", "ar", "Arabic", true},
		{"french", "fr", "French", false},
		{"  Hebrew ", "he", "Hebrew", true},
		{"Persian", "fa", "Persian", true},
		{"farsi", "fa", "Persian", true},
		{"ur", "ur", "Urdu", true},
		{"pt-BR", "pt-BR", "Brazilian Portuguese", false},
		{"Simplified Chinese", "zh-Hans", "Simplified Chinese", false},
		{"ja", "ja", "Japanese", false},
	}
	for _, tt := range tests {
		got, err := ResolveLanguage(tt.in)
		if err != nil {
			t.Errorf("ResolveLanguage(%q) error = %v", tt.in, err)
			continue
		}
		if got.Tag.String() != tt.tag || got.Name != tt.name || got.RTL != tt.rtl {
			t.Errorf("ResolveLanguage(%q) = %s %q rtl=%v, want %s %q rtl=%v",
				tt.in, got.Tag, got.Name, got.RTL, tt.tag, tt.name, tt.rtl)
		}
	}
}

func TestResolveLanguageErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "not a language at all"} {
		if _, err := ResolveLanguage(in); !types.IsCode(err, types.ErrInvalidInput) {
			t.Errorf("ResolveLanguage(%q) error = %v", in, err)
		}
	}
}

func TestIsRTL(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"ar", true}, {"ar-EG", true}, {"he", true}, {"yi", true}, {"dv", true},
		{"en", false}, {"de", false}, {"az-Latn", false}, {"az-Arab", true},
	}
	for _, tt := range tests {
		if got := IsRTL(language.MustParse(tt.tag)); got != tt.want {
			t.Errorf("IsRTL(%s) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestContainsRTL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Hello", false},
		{"123 456", false},
		{"مرحبا", true},
		{"Total: שלום", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := ContainsRTL(tt.in); got != tt.want {
			t.Errorf("ContainsRTL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
