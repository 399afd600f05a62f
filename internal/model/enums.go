package model

type TestimonialStatus string

const (
	TestimonialStatusPending  TestimonialStatus = "pending"
	TestimonialStatusApproved TestimonialStatus = "approved"
)

type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"

	DefaultLanguage = LanguageFrench
)

// SupportedLanguages lists the languages invitations and forms are offered in.
var SupportedLanguages = []Language{LanguageFrench, LanguageEnglish, LanguageTurkish}

func (l Language) Valid() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}
