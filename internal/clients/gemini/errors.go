package gemini

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
)

// ErrAllKeysExhausted means every configured credential is currently
// rate-limited. Callers should back off and retry later instead of
// treating this as a malformed request or a transient network failure.
var ErrAllKeysExhausted = errors.New("all API keys exhausted")

var rateLimitMarkers = []string{
	"429",
	"RESOURCE_EXHAUSTED",
	"quota",
	"rate limit",
}

// IsRateLimitError reports whether err indicates the current credential ran
// out of quota. It prefers the typed googleapi status code and falls back to
// message sniffing, which is known to be loose: an unrelated error whose text
// happens to contain "429" would be misclassified.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
