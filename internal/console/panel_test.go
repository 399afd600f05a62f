package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/testimonial-relay/internal/admin"
)

type recordingController struct {
	mu      sync.Mutex
	calls   []string
	invites []admin.InviteForm
	stopped bool
}

func (r *recordingController) record(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
}

func (r *recordingController) Init(ctx context.Context)                 { r.record("init") }
func (r *recordingController) SignIn(ctx context.Context, email string) { r.record("signin " + email) }
func (r *recordingController) CompleteSignIn(ctx context.Context, u string) error {
	r.record("complete " + u)
	return nil
}
func (r *recordingController) SignOut(ctx context.Context) { r.record("signout") }
func (r *recordingController) Load(ctx context.Context, opts admin.LoadOptions) {
	if opts.Reset {
		r.record("load reset")
		return
	}
	r.record("load")
}
func (r *recordingController) LoadMore(ctx context.Context)           { r.record("more") }
func (r *recordingController) Approve(ctx context.Context, id string) { r.record("approve " + id) }
func (r *recordingController) SubmitInvite(ctx context.Context, form admin.InviteForm) {
	r.mu.Lock()
	r.invites = append(r.invites, form)
	r.mu.Unlock()
	r.record("invite")
}
func (r *recordingController) StopPolling() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

func TestPanel_Run(t *testing.T) {
	ctrl := &recordingController{}
	var out bytes.Buffer
	view := NewTerminalView(&out)
	view.RenderPending(admin.ListView{Cards: []admin.Card{{ID: "uuid-1"}, {ID: "uuid-2"}}})

	in := strings.NewReader(strings.Join([]string{
		"",
		"login admin@x.com",
		"complete https://site/admin.html#access_token=abc",
		"list",
		"more",
		"approve 2",
		"approve 9f1c-raw",
		"invite client@x.com lang=en days=14 Jane Doe",
		"logout",
		"quit",
		"list",
	}, "\n"))

	p := NewPanel(ctrl, view, in, &out)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{
		"init",
		"signin admin@x.com",
		"complete https://site/admin.html#access_token=abc",
		"load reset",
		"more",
		"approve uuid-2",
		"approve 9f1c-raw",
		"invite",
		"signout",
	}, ctrl.calls)
	assert.True(t, ctrl.stopped)

	require.Len(t, ctrl.invites, 1)
	assert.Equal(t, admin.InviteForm{Email: "client@x.com", Name: "Jane Doe", Language: "en", ExpiresDays: "14"}, ctrl.invites[0])
}

func TestPanel_EndOfInput(t *testing.T) {
	ctrl := &recordingController{}
	p := NewPanel(ctrl, NewTerminalView(&bytes.Buffer{}), strings.NewReader("list"), &bytes.Buffer{})

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"init", "load reset"}, ctrl.calls)
}

func TestPanel_Usage(t *testing.T) {
	ctrl := &recordingController{}
	var out bytes.Buffer
	p := NewPanel(ctrl, NewTerminalView(&out), nil, &out)

	assert.True(t, p.Exec(context.Background(), "login"))
	assert.True(t, p.Exec(context.Background(), "approve"))
	assert.True(t, p.Exec(context.Background(), "invite"))
	assert.True(t, p.Exec(context.Background(), "bogus"))
	assert.False(t, p.Exec(context.Background(), "exit"))

	assert.Empty(t, ctrl.calls)
	assert.Contains(t, out.String(), "usage: login <email>")
	assert.Contains(t, out.String(), `unknown command "bogus"`)
}

func TestParseInvite(t *testing.T) {
	form, ok := parseInvite([]string{"a@x.com", "Ada", "Lovelace"}, "7")
	require.True(t, ok)
	assert.Equal(t, admin.InviteForm{Email: "a@x.com", Name: "Ada Lovelace", ExpiresDays: "7"}, form)

	_, ok = parseInvite(nil, "7")
	assert.False(t, ok)
}
