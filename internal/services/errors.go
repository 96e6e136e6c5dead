package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrTransport      = errors.New("transport error")
	ErrAuthentication = errors.New("authentication failed")
	ErrUnresolvable   = errors.New("unresolvable identifier")
	ErrLookup         = errors.New("lookup failed")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err must abort the whole run rather than a single item.
// Authentication and configuration failures are always fatal; any failure
// while the session is being established (loginPhase) is fatal as well.
func Fatal(err error, loginPhase bool) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrConfiguration):
		return true
	case loginPhase:
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
