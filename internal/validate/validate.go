// Package validate holds the shared struct validator and its custom rules.
package validate

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rs/zerolog/log"

	apperrors "github.com/folio/testimonial-relay/internal/errors"
)

var (
	basicEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	tokenPattern      = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)
)

// Service holds a singleton validator and translator
type Service struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Service
)

// Get returns the validator singleton, initializing on first use
func Get() *Service {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		register(v, trans, "basic_email", "{0} must be an email address", func(fl validator.FieldLevel) bool {
			return IsBasicEmail(fl.Field().String())
		})
		register(v, trans, "token_hex", "{0} must be 32 hexadecimal characters", func(fl validator.FieldLevel) bool {
			return IsToken(fl.Field().String())
		})
		register(v, trans, "web_url", "{0} must be an absolute http(s) URL", func(fl validator.FieldLevel) bool {
			return IsWebURL(fl.Field().String())
		})

		svc = &Service{Validator: v, Translator: trans}
	})
	return svc
}

func register(v *validator.Validate, trans ut.Translator, tag, text string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		log.Fatal().Err(err).Str("tag", tag).Msg("register validation")
	}
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field())
			return msg
		},
	)
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return Get().Validator.Struct(s)
}

// IsBasicEmail matches the loose local@domain.tld shape.
func IsBasicEmail(s string) bool {
	return basicEmailPattern.MatchString(s)
}

// IsToken matches a 32 character hex invitation token.
func IsToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// IsWebURL reports whether s parses as an absolute http or https URL.
func IsWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Messages maps "field.tag" (or a bare "tag") to a client facing message.
type Messages map[string]string

// Error turns a Struct failure into the AppError sent to the client. A
// missing required field maps to MISSING_REQUIRED, anything else to a
// validation error carrying Message. Details names the reported field.
func Error(err error, msgs Messages) *apperrors.AppError {
	fe := firstFailure(err)
	if fe == nil {
		return apperrors.ValidationError(Message(err, msgs))
	}
	details := map[string]string{"field": fe.Field()}
	if fe.Tag() == "required" {
		if m, ok := msgs["required"]; ok {
			appErr := apperrors.MissingFields().WithDetails(details)
			appErr.Message = m
			return appErr
		}
	}
	return apperrors.ValidationError(Message(err, msgs)).WithDetails(details)
}

// firstFailure returns the failure Message reports on, preferring the
// first missing required field.
func firstFailure(err error) validator.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return nil
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return fe
		}
	}
	return verrs[0]
}

// Message picks the message for the first failure. Any missing required
// field wins over other failures so callers report "missing" first.
func Message(err error, msgs Messages) string {
	fe := firstFailure(err)
	if fe == nil {
		return err.Error()
	}

	if fe.Tag() == "required" {
		if m, ok := msgs["required"]; ok {
			return m
		}
	}
	if m, ok := msgs[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	if m, ok := msgs[fe.Tag()]; ok {
		return m
	}
	return fe.Translate(Get().Translator)
}
