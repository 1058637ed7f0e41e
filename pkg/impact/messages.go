package impact

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	msgDistanceMin      = "distance.min"
	msgDistanceMax      = "distance.max"
	msgFuelPriceInvalid = "fuelprice.invalid"
	msgFuelPriceMax     = "fuelprice.max"
)

// DefaultLanguage is used when no language is requested.
var DefaultLanguage = language.Spanish

// SupportedLanguages lists the languages validation messages are available in.
var SupportedLanguages = []language.Tag{language.Spanish, language.English}

var (
	messages = buildCatalog()
	matcher  = language.NewMatcher(SupportedLanguages)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(DefaultLanguage))
	entries := []struct {
		tag language.Tag
		key string
		msg string
	}{
		{language.Spanish, msgDistanceMin, "Introduce al menos 100 km por mes"},
		{language.Spanish, msgDistanceMax, "Introduce como máximo %v km por mes"},
		{language.Spanish, msgFuelPriceInvalid, "Introduce un precio válido de combustible"},
		{language.Spanish, msgFuelPriceMax, "El precio del combustible no puede superar %v por litro"},
		{language.English, msgDistanceMin, "Enter at least 100 km per month"},
		{language.English, msgDistanceMax, "Enter at most %v km per month"},
		{language.English, msgFuelPriceInvalid, "Enter a valid fuel price"},
		{language.English, msgFuelPriceMax, "Fuel price cannot exceed %v per liter"},
	}
	for _, e := range entries {
		if err := b.SetString(e.tag, e.key, e.msg); err != nil {
			panic(err)
		}
	}
	return b
}

// MatchLanguage resolves a BCP 47 tag or Accept-Language value to a
// supported language. Empty or unparsable input yields DefaultLanguage.
func MatchLanguage(s string) language.Tag {
	if s == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}
