package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	ErrAuthentication     = errors.New("credential rejected")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrNotFound           = errors.New("youtube: video not found")
	ErrCommentsDisabled   = errors.New("youtube: comments disabled")
	ErrTransientNetwork   = errors.New("transient network failure")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// classifyYouTubeError maps an error returned by the YouTube Data API client
// onto the fetch error taxonomy.
func classifyYouTubeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", sentinelForAPIError(apiErr), apiErrMsg(apiErr))
	}

	// Anything that never produced an API response is a connectivity
	// failure: timeouts, refused connections, resets.
	return fmt.Errorf("%w: %s", ErrTransientNetwork, err.Error())
}

func sentinelForAPIError(apiErr *googleapi.Error) error {
	reasons := make(map[string]bool, len(apiErr.Errors))
	for _, item := range apiErr.Errors {
		reasons[item.Reason] = true
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return ErrAuthentication
	case apiErr.Code == http.StatusTooManyRequests,
		reasons["quotaExceeded"], reasons["rateLimitExceeded"], reasons["dailyLimitExceeded"]:
		return ErrQuotaExceeded
	case reasons["commentsDisabled"]:
		return ErrCommentsDisabled
	case apiErr.Code == http.StatusNotFound, reasons["videoNotFound"]:
		return ErrNotFound
	case apiErr.Code == http.StatusForbidden:
		return ErrAuthentication
	case apiErr.Code == http.StatusBadRequest &&
		(reasons["keyInvalid"] || strings.Contains(strings.ToLower(apiErr.Message), "api key")):
		return ErrAuthentication
	case apiErr.Code >= http.StatusInternalServerError:
		return ErrTransientNetwork
	default:
		return ErrUnexpectedResponse
	}
}

func apiErrMsg(apiErr *googleapi.Error) string {
	if apiErr.Message != "" {
		return fmt.Sprintf("status %d: %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Sprintf("status %d", apiErr.Code)
}
