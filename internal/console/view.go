package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/folio/testimonial-relay/internal/admin"
)

// TerminalView prints controller effects as text lines. It also remembers
// the last rendered list so that cards can be addressed by position.
type TerminalView struct {
	mu            sync.Mutex
	out           io.Writer
	authenticated bool
	cards         []admin.Card
	expiry        string
}

func NewTerminalView(out io.Writer) *TerminalView {
	return &TerminalView{out: out, expiry: admin.DefaultExpiryDays}
}

func (v *TerminalView) SetAuthenticated(authenticated bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.authenticated == authenticated {
		return
	}
	v.authenticated = authenticated
	if !authenticated {
		v.cards = nil
		v.printf("-- signed out. use: login <email>\n")
		return
	}
	v.printf("-- signed in. commands: list, more, approve <n>, invite, logout\n")
}

func (v *TerminalView) ShowNotice(target admin.Target, message string, isError bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if isError {
		v.printf("[%s] error: %s\n", target, message)
		return
	}
	v.printf("[%s] %s\n", target, message)
}

func (v *TerminalView) HideNotice(admin.Target) {}

func (v *TerminalView) RenderPending(list admin.ListView) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cards = list.Cards

	var b strings.Builder
	switch {
	case list.Error != "":
		fmt.Fprintf(&b, "  ! %s\n", list.Error)
	case list.Placeholder != "":
		fmt.Fprintf(&b, "  %s\n", list.Placeholder)
	}
	for i, c := range list.Cards {
		state := c.ApproveLabel
		if c.ApproveDisabled {
			state += " ..."
		}
		fmt.Fprintf(&b, "%3d. %s [%s] %s  (%s: approve %d)\n", i+1, c.Name, c.Badge, c.CreatedAt.Format("2006-01-02 15:04"), state, i+1)
		for _, line := range strings.Split(c.Comment, "\n") {
			fmt.Fprintf(&b, "     %s\n", line)
		}
	}
	if list.LoadMore.Visible {
		if list.LoadMore.Disabled {
			fmt.Fprintf(&b, "  (%s ...)\n", list.LoadMore.Label)
		} else {
			fmt.Fprintf(&b, "  %s: more\n", list.LoadMore.Label)
		}
	}
	v.printf("%s", b.String())
}

func (v *TerminalView) SetLoginBusy(busy bool) {
	if busy {
		v.mu.Lock()
		v.printf("   sending link...\n")
		v.mu.Unlock()
	}
}

func (v *TerminalView) SetInviteBusy(busy bool) {
	if busy {
		v.mu.Lock()
		v.printf("   sending invitation...\n")
		v.mu.Unlock()
	}
}

func (v *TerminalView) SetInviteExpiry(days string) {
	v.mu.Lock()
	v.expiry = days
	v.mu.Unlock()
}

func (v *TerminalView) ResetInviteForm(defaultExpiry string) {
	v.mu.Lock()
	v.expiry = defaultExpiry
	v.mu.Unlock()
}

// Expiry is the invite form's current day count.
func (v *TerminalView) Expiry() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expiry
}

// CardID resolves a 1-based list position to a testimonial ID.
func (v *TerminalView) CardID(pos int) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if pos < 1 || pos > len(v.cards) {
		return "", false
	}
	return v.cards[pos-1].ID, true
}

func (v *TerminalView) Authenticated() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.authenticated
}

// printf writes under v.mu.
func (v *TerminalView) printf(format string, args ...any) {
	fmt.Fprintf(v.out, format, args...)
}
