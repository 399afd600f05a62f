package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/folio/testimonial-relay/internal/i18n"
	"github.com/folio/testimonial-relay/internal/model"
)

const maxDetailLength = 180

// RemoteError is a non-2xx answer from the server. Detail is already
// compacted.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("remote error: HTTP %d: %s", e.Status, e.Detail)
}

// ParseRemoteError builds a RemoteError from a response body, preferring the
// JSON "error" then "message" fields over the raw text.
func ParseRemoteError(status int, body []byte) *RemoteError {
	raw := string(body)
	detail := raw
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Error != "":
			detail = parsed.Error
		case parsed.Message != "":
			detail = parsed.Message
		}
	}
	return &RemoteError{Status: status, Detail: compactError(detail, maxDetailLength)}
}

// compactError collapses whitespace and caps the text at max runes plus an
// ellipsis.
func compactError(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}

// inviteFailureReason turns a send-invite failure into an operator facing
// reason.
func inviteFailureReason(lang model.Language, e *RemoteError) string {
	switch {
	case e.Status == http.StatusUnauthorized:
		return i18n.T(lang, i18n.ReasonUnauthorized)
	case e.Status == http.StatusForbidden:
		return i18n.T(lang, i18n.ReasonForbidden)
	case e.Status == http.StatusInternalServerError && strings.Contains(e.Detail, "Missing server configuration"):
		return i18n.T(lang, i18n.ReasonServerConfig)
	}

	if e.Detail == "" {
		if e.Status == 0 {
			return i18n.T(lang, i18n.ReasonHTTPUnknown)
		}
		return i18n.T(lang, i18n.ReasonHTTPStatus, strconv.Itoa(e.Status))
	}

	status := i18n.T(lang, i18n.ReasonUnknownStatus)
	if e.Status != 0 {
		status = strconv.Itoa(e.Status)
	}
	return i18n.T(lang, i18n.ReasonHTTPDetail, status, e.Detail)
}
