package middleware

import (
	"net/http"

	"github.com/folio/testimonial-relay/internal/httputil"
)

// writeError keeps middleware errors in the same {error, code} shape as the
// handlers.
func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
