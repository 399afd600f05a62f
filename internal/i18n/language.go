// Package i18n resolves supported languages and renders localized strings.
package i18n

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/folio/testimonial-relay/internal/model"
)

var supportedTags = []language.Tag{
	language.French, // default first, the matcher falls back to it
	language.English,
	language.Turkish,
}

var matcher = language.NewMatcher(supportedTags)

// Normalize maps a client supplied language to a supported one. Unknown or
// empty values resolve to French. A region subtag is dropped (en-US is en),
// but the primary subtag must be stated, so und and root stay French.
func Normalize(raw string) model.Language {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return model.DefaultLanguage
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return model.DefaultLanguage
	}
	base, conf := tag.Base()
	if conf != language.Exact {
		return model.DefaultLanguage
	}
	lang := model.Language(base.String())
	if !lang.Valid() {
		return model.DefaultLanguage
	}
	return lang
}

// Tag returns the x/text tag for a supported language.
func Tag(l model.Language) language.Tag {
	switch l {
	case model.LanguageEnglish:
		return language.English
	case model.LanguageTurkish:
		return language.Turkish
	default:
		return language.French
	}
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string) model.Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return model.DefaultLanguage
	}
	_, idx, _ := matcher.Match(tags...)
	return Normalize(supportedTags[idx].String())
}
