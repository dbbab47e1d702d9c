package transcript

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Failure conditions a transcript fetch can end in. Callers are free to treat
// them all the same way; they exist so logs say what actually went wrong.
var (
	ErrVideoUnavailable    = errors.New("video unavailable")
	ErrInvalidVideoID      = errors.New("invalid video id")
	ErrTranscriptsDisabled = errors.New("transcripts disabled")
	ErrNoTranscriptFound   = errors.New("no transcript found")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrConsentRequired     = errors.New("consent or cookies required")
)

// Classify maps an error from the YouTube client onto one of the named
// failure conditions. The original error stays in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{
		ErrVideoUnavailable,
		ErrInvalidVideoID,
		ErrTranscriptsDisabled,
		ErrNoTranscriptFound,
		ErrTooManyRequests,
		ErrConsentRequired,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, youtube.ErrTranscriptDisabled):
		return fmt.Errorf("%w: %w", ErrTranscriptsDisabled, err)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %w", ErrInvalidVideoID, err)
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("%w: %w", ErrVideoUnavailable, err)
	case errors.Is(err, youtube.ErrLoginRequired):
		return fmt.Errorf("%w: %w", ErrConsentRequired, err)
	}

	var status youtube.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		switch int(status) {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrTooManyRequests, err)
		case http.StatusNotFound, http.StatusBadRequest:
			return fmt.Errorf("%w: %w", ErrNoTranscriptFound, err)
		}
	}

	// Playability failures only surface as text.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "consent"), strings.Contains(msg, "sign in to confirm"):
		return fmt.Errorf("%w: %w", ErrConsentRequired, err)
	case strings.Contains(msg, "unavailable"), strings.Contains(msg, "unplayable"):
		return fmt.Errorf("%w: %w", ErrVideoUnavailable, err)
	case strings.Contains(msg, "too many requests"), strings.Contains(msg, "captcha"):
		return fmt.Errorf("%w: %w", ErrTooManyRequests, err)
	}

	return err
}
