package i18n

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/folio/testimonial-relay/internal/model"
)

// Message keys. Arguments are always strings: numeric verbs would pick up
// locale digit grouping.
const (
	// Admin console notices
	ConfigMissing        = "notice.config_missing"
	AccessDenied         = "notice.access_denied"
	EmailNotAllowed      = "notice.email_not_allowed"
	SignInFailed         = "notice.sign_in_failed"
	SignInLinkSent       = "notice.sign_in_link_sent"
	SignInCompleted      = "notice.sign_in_completed"
	SignedOut            = "notice.signed_out"
	MissingInformation   = "notice.missing_information"
	NameTooLong          = "notice.name_too_long"
	InvalidEmail         = "notice.invalid_email"
	TokenCreateFailed    = "notice.token_create_failed"
	TokenCreateFailedFor = "notice.token_create_failed_detail"
	InviteNotSent        = "notice.invite_not_sent"
	InviteNetworkError   = "notice.invite_network_error"
	InviteSent           = "notice.invite_sent"
	InviteBlocked        = "notice.invite_blocked"
	ApproveFailed        = "notice.approve_failed"
	PendingLoadFailed    = "notice.pending_load_failed"
	PendingEmpty         = "notice.pending_empty"
	PendingBadge         = "label.pending"
	ApproveAction        = "label.approve"
	LoadMore             = "label.load_more"
	Loading              = "label.loading"
	DefaultClientName    = "label.client"

	// Reasons decoded from send-invite failures
	ReasonUnauthorized  = "reason.unauthorized"
	ReasonForbidden     = "reason.forbidden"
	ReasonServerConfig  = "reason.server_config"
	ReasonHTTPStatus    = "reason.http_status"
	ReasonHTTPUnknown   = "reason.http_unknown"
	ReasonHTTPDetail    = "reason.http_detail"
	ReasonUnknownStatus = "reason.unknown_status"

	// Invitation email
	EmailSubject = "email.subject"
	EmailIntro   = "email.intro"
	EmailBody    = "email.body"
	EmailButton  = "email.button"
	EmailFooter  = "email.footer"
	EmailExpiry  = "email.expiry"
)

// strings per key; fr is complete and fills any gap in the other languages.
var translations = map[string]map[model.Language]string{
	ConfigMissing:        {model.LanguageFrench: "Configuration Supabase manquante.", model.LanguageEnglish: "Supabase configuration missing."},
	AccessDenied:         {model.LanguageFrench: "Acces refuse.", model.LanguageEnglish: "Access denied."},
	EmailNotAllowed:      {model.LanguageFrench: "Email non autorise.", model.LanguageEnglish: "Email not authorized."},
	SignInFailed:         {model.LanguageFrench: "Connexion impossible. Reessayez.", model.LanguageEnglish: "Cannot sign in. Try again."},
	SignInLinkSent:       {model.LanguageFrench: "Lien envoye. Verifiez votre email.", model.LanguageEnglish: "Link sent. Check your email."},
	SignInCompleted:      {model.LanguageFrench: "Connecte en tant que %s.", model.LanguageEnglish: "Signed in as %s."},
	SignedOut:            {model.LanguageFrench: "Deconnecte.", model.LanguageEnglish: "Signed out."},
	MissingInformation:   {model.LanguageFrench: "Informations manquantes.", model.LanguageEnglish: "Missing information."},
	NameTooLong:          {model.LanguageFrench: "Nom trop long (%s caracteres max).", model.LanguageEnglish: "Name too long (%s characters max)."},
	InvalidEmail:         {model.LanguageFrench: "Email invalide.", model.LanguageEnglish: "Invalid email."},
	TokenCreateFailed:    {model.LanguageFrench: "Impossible de generer le lien.", model.LanguageEnglish: "Cannot generate the link."},
	TokenCreateFailedFor: {model.LanguageFrench: "Impossible de generer le lien: %s", model.LanguageEnglish: "Cannot generate the link: %s"},
	InviteNotSent:        {model.LanguageFrench: "Invitation creee mais email non envoye: %s", model.LanguageEnglish: "Invitation created but email not sent: %s"},
	InviteNetworkError:   {model.LanguageFrench: "Invitation creee mais email non envoye: erreur reseau.", model.LanguageEnglish: "Invitation created but email not sent: network error."},
	InviteSent:           {model.LanguageFrench: "Invitation envoyee. Lien: %s", model.LanguageEnglish: "Invitation sent. Link: %s"},
	InviteBlocked:        {model.LanguageFrench: "Operation bloquee. Reessayez.", model.LanguageEnglish: "Operation stalled. Please retry."},
	ApproveFailed:        {model.LanguageFrench: "Impossible de publier cet avis.", model.LanguageEnglish: "Cannot publish this testimonial."},
	PendingLoadFailed:    {model.LanguageFrench: "Impossible de charger les avis.", model.LanguageEnglish: "Cannot load testimonials."},
	PendingEmpty:         {model.LanguageFrench: "Aucun avis en attente.", model.LanguageEnglish: "No pending testimonials."},
	PendingBadge:         {model.LanguageFrench: "En attente", model.LanguageEnglish: "Pending"},
	ApproveAction:        {model.LanguageFrench: "Publier", model.LanguageEnglish: "Publish"},
	LoadMore:             {model.LanguageFrench: "Charger plus", model.LanguageEnglish: "Load more"},
	Loading:              {model.LanguageFrench: "Chargement...", model.LanguageEnglish: "Loading..."},
	DefaultClientName:    {model.LanguageFrench: "Client", model.LanguageEnglish: "Client"},

	ReasonUnauthorized:  {model.LanguageFrench: "Session admin invalide. Reconnectez-vous.", model.LanguageEnglish: "Invalid admin session. Sign in again."},
	ReasonForbidden:     {model.LanguageFrench: "Email admin refuse cote serveur (ADMIN_EMAILS).", model.LanguageEnglish: "Admin email rejected by the server (ADMIN_EMAILS)."},
	ReasonServerConfig:  {model.LanguageFrench: "Configuration serveur manquante (SUPABASE/RESEND/ADMIN_EMAILS).", model.LanguageEnglish: "Server configuration missing (SUPABASE/RESEND/ADMIN_EMAILS)."},
	ReasonHTTPStatus:    {model.LanguageFrench: "Erreur HTTP %s.", model.LanguageEnglish: "HTTP error %s."},
	ReasonHTTPUnknown:   {model.LanguageFrench: "Erreur HTTP inconnue.", model.LanguageEnglish: "Unknown HTTP error."},
	ReasonHTTPDetail:    {model.LanguageFrench: "HTTP %s: %s"},
	ReasonUnknownStatus: {model.LanguageFrench: "?"},

	EmailSubject: {
		model.LanguageFrench:  "Votre retour sur notre collaboration",
		model.LanguageEnglish: "Your feedback on our collaboration",
		model.LanguageTurkish: "Birlikte calismamiz hakkinda gorusleriniz",
	},
	EmailIntro: {
		model.LanguageFrench:  "Bonjour %s,",
		model.LanguageEnglish: "Hi %s,",
		model.LanguageTurkish: "Merhaba %s,",
	},
	EmailBody: {
		model.LanguageFrench:  "Merci pour notre collaboration. Pouvez-vous laisser un avis via le lien ci-dessous ?",
		model.LanguageEnglish: "Thanks for working together. Could you leave feedback using the link below?",
		model.LanguageTurkish: "Birlikte calistigimiz icin tesekkurler. Asagidaki linkten yorum birakabilir misiniz?",
	},
	EmailButton: {
		model.LanguageFrench:  "Laisser mon avis",
		model.LanguageEnglish: "Share feedback",
		model.LanguageTurkish: "Yorum birak",
	},
	EmailFooter: {
		model.LanguageFrench:  "Le lien est personnel et expire automatiquement.",
		model.LanguageEnglish: "This link is personal and will expire automatically.",
		model.LanguageTurkish: "Bu baglanti size ozeldir ve otomatik olarak sure sonu olur.",
	},
	EmailExpiry: {model.LanguageFrench: "Expiration: %s"},
}

var cat = mustBuildCatalog()

func mustBuildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.French))
	for key, byLang := range translations {
		fallback := byLang[model.LanguageFrench]
		for _, lang := range model.SupportedLanguages {
			text, ok := byLang[lang]
			if !ok {
				text = fallback
			}
			if err := b.SetString(Tag(lang), key, text); err != nil {
				log.Fatal().Err(err).Str("key", key).Msg("build message catalog")
			}
		}
	}
	return b
}

// Printer returns a printer bound to the message catalog.
func Printer(l model.Language) *message.Printer {
	return message.NewPrinter(Tag(l), message.Catalog(cat))
}

// T renders key in language l.
func T(l model.Language, key string, args ...any) string {
	return Printer(l).Sprintf(key, args...)
}
