// Package voices carries the Kokoro voice catalog. The catalog is static:
// it backs voice validation, language defaults and the listing shown by the
// voices subcommand, and works offline. Engines that can enumerate voices at
// runtime (a live Kokoro server) report their own list on top of this one.
package voices

import (
	"fmt"
	"strings"
)

// Default is the voice used when none is configured.
const Default = "af_heart"

// DefaultLang is the language code matching Default.
const DefaultLang = "a"

// Language groups the voices of one Kokoro language code.
type Language struct {
	Code   string
	Name   string
	Female []string
	Male   []string
}

var catalog = []Language{
	{
		Code: "a", Name: "American English",
		Female: []string{"af_alloy", "af_aoede", "af_bella", "af_heart", "af_jessica", "af_kore", "af_nicole", "af_nova", "af_river", "af_sarah", "af_sky"},
		Male:   []string{"am_adam", "am_echo", "am_eric", "am_fenrir", "am_liam", "am_michael", "am_onyx", "am_puck", "am_santa"},
	},
	{
		Code: "b", Name: "British English",
		Female: []string{"bf_alice", "bf_emma", "bf_isabella", "bf_lily"},
		Male:   []string{"bm_daniel", "bm_fable", "bm_george", "bm_lewis"},
	},
	{
		Code: "e", Name: "Spanish",
		Female: []string{"ef_dora"},
		Male:   []string{"em_alex", "em_santa"},
	},
	{
		Code: "f", Name: "French",
		Female: []string{"ff_siwis"},
	},
	{
		Code: "h", Name: "Hindi",
		Female: []string{"hf_alpha", "hf_beta"},
		Male:   []string{"hm_omega", "hm_psi"},
	},
	{
		Code: "i", Name: "Italian",
		Female: []string{"if_sara"},
		Male:   []string{"im_nicola"},
	},
	{
		Code: "j", Name: "Japanese",
		Female: []string{"jf_alpha", "jf_gongitsune", "jf_nezumi", "jf_tebukuro"},
		Male:   []string{"jm_kumo"},
	},
	{
		Code: "p", Name: "Brazilian Portuguese",
		Female: []string{"pf_dora"},
		Male:   []string{"pm_alex", "pm_santa"},
	},
	{
		Code: "z", Name: "Mandarin Chinese",
		Female: []string{"zf_xiaobei", "zf_xiaoni", "zf_xiaoxiao", "zf_xiaoyi"},
		Male:   []string{"zm_yunjian", "zm_yunxi", "zm_yunxia", "zm_yunyang"},
	},
}

// Catalog returns all languages with their voices.
func Catalog() []Language {
	return catalog
}

// Known reports whether voice appears in the catalog.
func Known(voice string) bool {
	_, ok := LangFor(voice)
	return ok
}

// LangFor returns the language code a catalog voice belongs to.
func LangFor(voice string) (string, bool) {
	for _, lang := range catalog {
		for _, v := range lang.Female {
			if v == voice {
				return lang.Code, true
			}
		}
		for _, v := range lang.Male {
			if v == voice {
				return lang.Code, true
			}
		}
	}
	return "", false
}

// ForLanguage returns the catalog entry for a language code.
func ForLanguage(code string) (Language, bool) {
	for _, lang := range catalog {
		if lang.Code == code {
			return lang, true
		}
	}
	return Language{}, false
}

// All returns every catalog voice in listing order.
func All() []string {
	var all []string
	for _, lang := range catalog {
		all = append(all, lang.Female...)
		all = append(all, lang.Male...)
	}
	return all
}

// DefaultFor returns the voice to use for a language when none is configured:
// the first female voice, else the first male.
func DefaultFor(code string) string {
	if code == "" || code == DefaultLang {
		return Default
	}
	lang, ok := ForLanguage(code)
	if !ok {
		return Default
	}
	if len(lang.Female) > 0 {
		return lang.Female[0]
	}
	if len(lang.Male) > 0 {
		return lang.Male[0]
	}
	return Default
}

// Render formats the catalog for the voices subcommand.
func Render() string {
	var b strings.Builder

	b.WriteString("Available Voices by Language:\n")
	for _, lang := range catalog {
		fmt.Fprintf(&b, "\n%s (lang: %s)\n", lang.Name, lang.Code)
		if len(lang.Female) > 0 {
			fmt.Fprintf(&b, "  Female: %s\n", strings.Join(lang.Female, ", "))
		}
		if len(lang.Male) > 0 {
			fmt.Fprintf(&b, "  Male:   %s\n", strings.Join(lang.Male, ", "))
		}
	}

	b.WriteString("\nUsage:\n")
	b.WriteString("  readaloud --voice af_heart document.md\n")
	b.WriteString("  readaloud --voice bf_emma --lang b document.txt\n")
	b.WriteString("\nExample:\n")
	b.WriteString("  readaloud README.md -o readme.wav\n")

	return b.String()
}
