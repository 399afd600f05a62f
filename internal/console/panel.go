package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/folio/testimonial-relay/internal/admin"
)

// Controller is the part of admin.Controller the panel drives.
type Controller interface {
	Init(ctx context.Context)
	SignIn(ctx context.Context, email string)
	CompleteSignIn(ctx context.Context, redirectURL string) error
	SignOut(ctx context.Context)
	Load(ctx context.Context, opts admin.LoadOptions)
	LoadMore(ctx context.Context)
	Approve(ctx context.Context, id string)
	SubmitInvite(ctx context.Context, form admin.InviteForm)
	StopPolling()
}

const helpText = `commands:
  login <email>                  request a magic link
  complete <redirect url>        finish sign in with the link's final URL
  list                           reload pending testimonials
  more                           load the next page
  approve <n|id>                 publish a pending testimonial
  invite <email> [lang=fr|en|tr] [days=N] <name...>
                                 create a comment link and email it
  logout                         sign out
  quit                           leave the panel
`

// Panel reads commands line by line and forwards them to the controller.
type Panel struct {
	ctrl Controller
	view *TerminalView
	in   io.Reader
	out  io.Writer
}

func NewPanel(ctrl Controller, view *TerminalView, in io.Reader, out io.Writer) *Panel {
	return &Panel{ctrl: ctrl, view: view, in: in, out: out}
}

// Run initializes the controller and serves commands until quit, end of
// input, or ctx is cancelled.
func (p *Panel) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer p.ctrl.StopPolling()

	p.ctrl.Init(ctx)
	if !p.view.Authenticated() {
		fmt.Fprintln(p.out, "-- signed out. use: login <email>")
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(p.out, "> ")
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if !p.Exec(ctx, line) {
				return nil
			}
		}
	}
}

// Exec runs one command line and reports whether the panel should keep
// going.
func (p *Panel) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return false
	case "help", "?":
		fmt.Fprint(p.out, helpText)
	case "login":
		if len(args) != 1 {
			p.usage("login <email>")
			return true
		}
		p.ctrl.SignIn(ctx, args[0])
	case "complete":
		if len(args) != 1 {
			p.usage("complete <redirect url>")
			return true
		}
		if err := p.ctrl.CompleteSignIn(ctx, args[0]); err != nil {
			log.Debug().Err(err).Msg("sign in not completed")
		}
	case "list":
		p.ctrl.Load(ctx, admin.LoadOptions{Reset: true})
	case "more":
		p.ctrl.LoadMore(ctx)
	case "approve":
		if len(args) != 1 {
			p.usage("approve <n|id>")
			return true
		}
		p.ctrl.Approve(ctx, p.resolveID(args[0]))
	case "invite":
		form, ok := parseInvite(args, p.view.Expiry())
		if !ok {
			p.usage("invite <email> [lang=fr|en|tr] [days=N] <name...>")
			return true
		}
		p.ctrl.SubmitInvite(ctx, form)
	case "logout":
		p.ctrl.SignOut(ctx)
	default:
		fmt.Fprintf(p.out, "unknown command %q, try help\n", cmd)
	}
	return true
}

// resolveID accepts a list position or a raw ID.
func (p *Panel) resolveID(arg string) string {
	if pos, err := strconv.Atoi(arg); err == nil {
		if id, ok := p.view.CardID(pos); ok {
			return id
		}
	}
	return arg
}

func (p *Panel) usage(s string) {
	fmt.Fprintf(p.out, "usage: %s\n", s)
}

// parseInvite reads "email [lang=..] [days=..] name...". Days default to the
// form's current value.
func parseInvite(args []string, days string) (admin.InviteForm, bool) {
	if len(args) == 0 {
		return admin.InviteForm{}, false
	}

	form := admin.InviteForm{Email: args[0], ExpiresDays: days}
	var name []string
	for _, a := range args[1:] {
		switch {
		case strings.HasPrefix(a, "lang="):
			form.Language = strings.TrimPrefix(a, "lang=")
		case strings.HasPrefix(a, "days="):
			form.ExpiresDays = strings.TrimPrefix(a, "days=")
		default:
			name = append(name, a)
		}
	}
	form.Name = strings.Join(name, " ")
	return form, true
}
