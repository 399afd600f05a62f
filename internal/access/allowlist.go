// Package access decides which emails may use the admin surfaces.
package access

import "strings"

// Allowlist holds lowercase admin emails. An empty list admits any
// non-empty email.
type Allowlist struct {
	emails map[string]struct{}
}

func NewAllowlist(emails []string) *Allowlist {
	a := &Allowlist{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		e = normalize(e)
		if e != "" {
			a.emails[e] = struct{}{}
		}
	}
	return a
}

func (a *Allowlist) IsAllowed(email string) bool {
	email = normalize(email)
	if email == "" {
		return false
	}
	if a == nil || len(a.emails) == 0 {
		return true
	}
	_, ok := a.emails[email]
	return ok
}

// Open reports whether every authenticated email is admitted.
func (a *Allowlist) Open() bool {
	return a == nil || len(a.emails) == 0
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
