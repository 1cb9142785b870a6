// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Device operations
	OpDeviceOpen Op = "open device database"
	OpDeviceInit Op = "initialize device"
	OpDeviceInfo Op = "read device info"

	// Track operations
	OpTrackAdd      Op = "add track"
	OpTrackUpdate   Op = "update track"
	OpTrackRemove   Op = "remove track"
	OpTrackFinalize Op = "finalize track transfer"
	OpTrackTags     Op = "read file tags"
	OpTrackCopy     Op = "copy track to device"

	// Playlist operations
	OpPlaylistShow     Op = "list playlist tracks"
	OpPlaylistCreate   Op = "create playlist"
	OpPlaylistRename   Op = "rename playlist"
	OpPlaylistDelete   Op = "delete playlist"
	OpPlaylistAddTrack Op = "add track to playlist"
	OpPlaylistRemove   Op = "remove track from playlist"

	// Commit
	OpCommit Op = "write device database"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
