package compose

import (
	"context"
	"errors"

	"shortsmith/internal/background"
	"shortsmith/internal/media"
	"shortsmith/internal/mix"
	"shortsmith/internal/overlay"
	"shortsmith/internal/transcribe"
)

// Failure kinds that end a composition in StateFailed without an error
// return.
var (
	ErrNoBackgroundAvailable = background.ErrNoBackgroundAvailable
	ErrUnreadableBackground  = media.ErrUnreadableBackground
	ErrUnreadableAudio       = media.ErrUnreadableAudio
	ErrEncoding              = errors.New("encoding failed")
	ErrOutputExists          = errors.New("output already exists")
	ErrOutputBusy            = errors.New("output is being written by another composition")
)

// Recovered kinds. They are logged and reported on the Outcome but never fail
// a composition.
var (
	ErrTranscriptionUnavailable = transcribe.ErrTranscriptionUnavailable
	ErrOverlayRender            = overlay.ErrOverlayRender
	ErrMusicMix                 = mix.ErrMusicMix
)

var predictable = []error{
	ErrNoBackgroundAvailable,
	ErrUnreadableBackground,
	ErrUnreadableAudio,
	ErrEncoding,
	ErrOutputExists,
	ErrOutputBusy,
}

// IsPredictable reports whether err is a failure kind Compose reports through
// the Outcome rather than its error return.
func IsPredictable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	for _, kind := range predictable {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Reason returns the short failure kind for err, suitable for summaries.
func Reason(err error) string {
	for _, kind := range predictable {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
