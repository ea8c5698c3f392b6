package helpers

import (
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/doeshing/datatalk/internal/domain"
)

// PrintNetworkHint explains a failed backend call in user-friendly terms.
// It prints nothing for errors that are not network or HTTP failures.
func PrintNetworkHint(out io.Writer, err error, backendURL string) {
	if err == nil {
		return
	}
	host := HostFromURL(backendURL)

	var statusErr *domain.HTTPStatusError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.StatusCode >= 500 {
			hint(out, "The backend at "+host+" failed while answering.",
				"The question service logged an internal error",
				"Retry in a moment or check the backend logs")
		} else {
			hint(out, "The backend at "+host+" rejected the request.",
				"Check backend.base_url and backend.query_path in the config",
				"Run `datatalk doctor` to verify the endpoint")
		}
	case isTimeoutError(err):
		hint(out, "Timed out waiting for "+host+".",
			"The query may be too expensive for the backend",
			"Raise backend.timeout in the config")
	case isDNSError(err):
		hint(out, "Cannot resolve "+host+".",
			"Check backend.base_url for typos",
			"Verify DNS settings and network connection")
	case isConnectionRefusedError(err):
		hint(out, "Connection to "+host+" was refused.",
			"Is the backend running?",
			"Wrong host or port in backend.base_url")
	case isTLSError(err):
		hint(out, "Secure connection to "+host+" failed.",
			"Certificate problem or proxy intercepting HTTPS",
			"Check the system clock")
	}
}

func hint(out io.Writer, headline string, items ...string) {
	pterm.Fprintln(out, pterm.FgYellow.Sprint(headline))
	for _, item := range items {
		pterm.Fprintln(out, "  • "+item)
	}
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLSError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tls") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "handshake")
}

// HostFromURL extracts the host for messages, or "the backend" when unknown.
func HostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "the backend"
	}
	return u.Host
}
