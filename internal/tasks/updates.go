package tasks

import (
	"fmt"

	"github.com/desertthunder/nowplaying/internal/models"
)

// ProgressUpdate represents a progress event during a render.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Render phase
	Step    int    // Current step number
	Total   int    // Total steps in a render
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Render phase enumeration
type Phase int

const (
	Authorize Phase = iota
	FetchPlayback
	FetchHistory
	FetchArtwork
	ExtractPalette
	FetchScanCode
	Compose
)

// totalSteps counts the phases a render walks through; FetchHistory shares a step with FetchPlayback.
const totalSteps = 6

func (p Phase) String() string {
	switch p {
	case Authorize:
		return "authorize"
	case FetchPlayback:
		return "fetch_playback"
	case FetchHistory:
		return "fetch_history"
	case FetchArtwork:
		return "fetch_artwork"
	case ExtractPalette:
		return "extract_palette"
	case FetchScanCode:
		return "fetch_scan_code"
	case Compose:
		return "compose"
	default:
		return ""
	}
}

func step(p Phase) int {
	switch p {
	case Authorize:
		return 1
	case FetchPlayback, FetchHistory:
		return 2
	case FetchArtwork:
		return 3
	case ExtractPalette:
		return 4
	case FetchScanCode:
		return 5
	default:
		return totalSteps
	}
}

func update(p Phase, msg string, data any) ProgressUpdate {
	return ProgressUpdate{Phase: p, Step: step(p), Total: totalSteps, Message: msg, Data: data}
}

func authorizeUpdate(userID string) ProgressUpdate {
	return update(Authorize, fmt.Sprintf("Checking access token for %s...", userID), nil)
}

func playbackUpdate() ProgressUpdate {
	return update(FetchPlayback, "Fetching currently playing track...", nil)
}

func historyUpdate() ProgressUpdate {
	return update(FetchHistory, "Nothing playing, fetching most recent track...", nil)
}

func artworkUpdate(track *models.TrackSnapshot) ProgressUpdate {
	return update(FetchArtwork, fmt.Sprintf("Fetching artwork for %s...", track.TrackName), track)
}

func paletteUpdate(p models.Palette) ProgressUpdate {
	return update(ExtractPalette, fmt.Sprintf("Extracted %d colours", len(p)), p)
}

func scanCodeUpdate(uri string) ProgressUpdate {
	return update(FetchScanCode, fmt.Sprintf("Fetching scan code for %s...", uri), nil)
}

func composeUpdate() ProgressUpdate {
	return update(Compose, "Composing badge...", nil)
}
