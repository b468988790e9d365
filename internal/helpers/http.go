package helpers

import (
	"net/http"
	"strings"

	"github.com/isometry/clerk-user-sync/internal/models"
)

// RespondHTTP writes the response headers, status code and plain-text body.
func RespondHTTP(response models.Response, rw http.ResponseWriter) {
	for k, v := range response.Headers {
		rw.Header().Set(k, v)
	}
	if rw.Header().Get("Content-Type") == "" {
		rw.Header().Set("Content-Type", "text/plain")
	}
	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.WriteHeader(statusCode)
	_, _ = rw.Write([]byte(response.Body))
}

// LowerHeaders returns a copy of the headers with lower-cased keys, keeping the first value of each.
func LowerHeaders[V string | []string](headers map[string]V) map[string]string {
	lch := make(map[string]string, len(headers))
	for k, v := range headers {
		switch vt := any(v).(type) {
		case string:
			lch[strings.ToLower(k)] = vt
		case []string:
			// XXX: we're losing duplicated headers here
			if len(vt) > 0 {
				lch[strings.ToLower(k)] = vt[0]
			}
		}
	}
	return lch
}
