package processing

import (
	"fmt"
	"regexp"
)

var videoIDPattern = regexp.MustCompile(`v=([a-zA-Z0-9_-]+)`)

// ExtractVideoID returns the token following the first "v=" in rawURL.
func ExtractVideoID(rawURL string) (string, error) {
	match := videoIDPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return match[1], nil
}
