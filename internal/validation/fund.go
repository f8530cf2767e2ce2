package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var schemeCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidateSchemeCode checks that a scheme code can be sent to the NAV provider.
func ValidateSchemeCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: scheme code is required", ErrInvalidSchemeCode)
	}
	if !schemeCodePattern.MatchString(code) {
		return fmt.Errorf("%w: %s", ErrInvalidSchemeCode, code)
	}
	return nil
}
