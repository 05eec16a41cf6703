package processing

import (
	"errors"

	"github.com/spacesedan/ytsentiment/internal/clients"
)

var (
	ErrInvalidURL        = errors.New("invalid YouTube video URL")
	ErrMissingCredential = errors.New("missing YouTube API key")
	ErrMissingURL        = errors.New("missing YouTube video URL")
	ErrModelUnavailable  = errors.New("sentiment model unavailable")
)

// UserMessage turns a pipeline error into the message shown to the analyst.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrMissingURL):
		return "Please enter both the API key and video URL!"
	case errors.Is(err, ErrInvalidURL):
		return "Invalid YouTube video URL!"
	case errors.Is(err, clients.ErrAuthentication):
		return "The YouTube API key was rejected. Check the key and its API restrictions."
	case errors.Is(err, clients.ErrQuotaExceeded):
		return "The YouTube API quota is exhausted. Try again later."
	case errors.Is(err, clients.ErrNotFound):
		return "No video was found for that URL."
	case errors.Is(err, clients.ErrCommentsDisabled):
		return "Comments are disabled for this video."
	case errors.Is(err, ErrModelUnavailable):
		return "The sentiment model could not be loaded."
	case errors.Is(err, clients.ErrTransientNetwork):
		return "Could not reach YouTube. Check the connection and try again."
	default:
		return "The YouTube API request failed."
	}
}
