// Package mail renders invitation emails and delivers them through Resend.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/model"
)

var invitationTmpl = template.Must(template.New("invitation").Parse(`
<div style="font-family:Arial,sans-serif;line-height:1.6;color:#111;">
    <p>{{.Intro}}</p>
    <p>{{.Body}}</p>
    <p>
        <a href="{{.CommentURL}}" style="display:inline-block;padding:12px 18px;background:#f59e0b;color:#0b0b0b;border-radius:999px;text-decoration:none;font-weight:700;">
            {{.Button}}
        </a>
    </p>
    {{- if .Expiry}}
    <p style="font-size:13px;color:#555;">{{.Expiry}}</p>
    {{- end}}
    <p style="font-size:13px;color:#555;">{{.Footer}}</p>
</div>
`))

// Invitation is the data needed to invite one client.
type Invitation struct {
	To         string
	Name       string
	Language   model.Language
	CommentURL string
	ExpiresAt  string
}

type invitationView struct {
	Intro      string
	Body       string
	Button     string
	Footer     string
	Expiry     string
	CommentURL string
}

// RenderInvitation returns the localized subject and HTML body. Every
// interpolated value is escaped by html/template.
func RenderInvitation(inv Invitation) (Message, error) {
	p := i18n.Printer(inv.Language)

	view := invitationView{
		Intro:      p.Sprintf(i18n.EmailIntro, inv.Name),
		Body:       p.Sprintf(i18n.EmailBody),
		Button:     p.Sprintf(i18n.EmailButton),
		Footer:     p.Sprintf(i18n.EmailFooter),
		CommentURL: inv.CommentURL,
	}
	if inv.ExpiresAt != "" {
		view.Expiry = p.Sprintf(i18n.EmailExpiry, inv.ExpiresAt)
	}

	var buf bytes.Buffer
	if err := invitationTmpl.Execute(&buf, view); err != nil {
		return Message{}, fmt.Errorf("render invitation: %w", err)
	}

	return Message{
		To:      inv.To,
		Subject: p.Sprintf(i18n.EmailSubject),
		HTML:    buf.String(),
	}, nil
}
