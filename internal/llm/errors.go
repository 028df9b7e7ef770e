package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFatalAPI marks backend errors that retrying cannot fix, such as
// authentication, billing and quota failures. A worker that sees one
// signals shutdown instead of moving on to the next job.
var ErrFatalAPI = errors.New("fatal API error")

// ErrShutdown is returned for calls made after SignalShutdown.
var ErrShutdown = errors.New("backend shut down")

// fatalPatterns are substrings of provider error messages that indicate
// an account-level problem. Rate limits and network failures are absent
// on purpose: those are transient and handled by the retry loop.
var fatalPatterns = []string{
	"credit balance",
	"quota exceeded",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err indicates an unrecoverable API
// failure (auth, billing, quota).
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range fatalPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// wrapFatalError wraps unrecoverable API errors with ErrFatalAPI so
// callers can detect them with errors.Is. Other errors pass through.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %v", ErrFatalAPI, err)
	}
	return err
}
