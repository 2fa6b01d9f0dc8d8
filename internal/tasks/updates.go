package tasks

import (
	"fmt"

	"github.com/liverslices/spotify-automation/internal/models"
)

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchItems
	GroupTracks
	EnsureDrawer
	AddTracks
	RemoveTracks
	Annotate
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchItems:
		return "fetch_items"
	case GroupTracks:
		return "group_tracks"
	case EnsureDrawer:
		return "ensure_drawer"
	case AddTracks:
		return "add_tracks"
	case RemoveTracks:
		return "remove_tracks"
	case Annotate:
		return "annotate"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func fetchSourceUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking up source playlist %q...", name),
	}
}

func fetchItemsUpdate(source *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchItems,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reading %s (%d tracks)...", source.Name, source.TrackCount),
		Data:    source,
	}
}

func groupTracksUpdate(eligible, buckets int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GroupTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d eligible tracks in %d buckets", eligible, buckets),
	}
}

func ensureDrawerUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnsureDrawer,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s...", step, total, name),
	}
}

func addTracksUpdate(step, total int, bucket Bucket, dest *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks to %s...", step, total, len(bucket.Items), dest.Name),
		Data:    dest,
	}
}

func removeTracksUpdate(step, total int, bucket Bucket, source *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removing %d tracks from %s...", step, total, len(bucket.Items), source.Name),
	}
}

func annotateUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Annotate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Updating description of %s...", name),
	}
}
