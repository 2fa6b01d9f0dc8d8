package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/liverslices/spotify-automation/internal/formatter"
	"github.com/liverslices/spotify-automation/internal/models"
	"github.com/liverslices/spotify-automation/internal/services"
	"github.com/liverslices/spotify-automation/internal/shared"
)

// BucketResult is the outcome of moving one bucket.
type BucketResult struct {
	Suffix        string `json:"suffix"`
	Destination   string `json:"destination"`
	DestinationID string `json:"destination_id,omitempty"`
	Moved         int    `json:"moved"`
	Created       bool   `json:"created"`
}

// RunResult records one run of the mover. It is never persisted.
type RunResult struct {
	RunAt    time.Time      `json:"run_at"`
	Cutoff   time.Time      `json:"cutoff"`
	Source   string         `json:"source"`
	SourceID string         `json:"source_id,omitempty"`
	DryRun   bool           `json:"dry_run"`
	Scanned  int            `json:"scanned"`
	Buckets  []BucketResult `json:"buckets"`
	Total    int            `json:"total"`
}

// Rows converts the per-bucket results for the report formatters.
func (r *RunResult) Rows() []formatter.ReportRow {
	rows := make([]formatter.ReportRow, len(r.Buckets))
	for i, b := range r.Buckets {
		rows[i] = formatter.ReportRow{
			Suffix:        b.Suffix,
			Destination:   b.Destination,
			DestinationID: b.DestinationID,
			Moved:         b.Moved,
			Created:       b.Created,
		}
	}
	return rows
}

// MoverOpts configures a [Mover].
type MoverOpts struct {
	Source       string           // source playlist name
	DurationDays int              // minimum age in days
	DryRun       bool             // plan only, no creation or mutation
	Now          func() time.Time // defaults to time.Now
	Logger       *log.Logger
}

// Mover moves aged tracks from a source playlist into per-year junk drawers.
type Mover struct {
	svc    services.Service
	opts   MoverOpts
	logger *log.Logger
}

// NewMover creates a Mover driving svc.
func NewMover(svc services.Service, opts MoverOpts) *Mover {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Mover{svc: svc, opts: opts, logger: opts.Logger}
}

// Run performs one pass: find the source, select tracks older than the cutoff,
// bucket them by year and move each bucket into its drawer.
//
// The first failed request aborts the run. Buckets moved before the failure stay
// moved and are reported in the returned result alongside the error.
func (m *Mover) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	if m.svc == nil {
		return nil, shared.NewError(shared.KindConfig, "mover has no service", 0, nil, nil)
	}
	if m.opts.Source == "" {
		return nil, shared.NewError(shared.KindConfig, "missing source playlist", 0, nil, nil)
	}
	if m.opts.DurationDays < 0 {
		return nil, shared.NewError(shared.KindConfig, fmt.Sprintf("duration days must be >= 0, got %d", m.opts.DurationDays), 0, nil, nil)
	}

	runAt := m.opts.Now()
	result := &RunResult{
		RunAt:   runAt.UTC().Truncate(time.Second),
		Cutoff:  CutoffDate(runAt, m.opts.DurationDays),
		Source:  m.opts.Source,
		DryRun:  m.opts.DryRun,
		Buckets: []BucketResult{},
	}

	user, err := m.svc.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	sendProgress(progress, fetchSourceUpdate(m.opts.Source))
	source, err := FindPlaylist(ctx, m.svc, m.opts.Source, user.ID, m.logger)
	if err != nil {
		return nil, fmt.Errorf("find source playlist: %w", err)
	}
	result.SourceID = string(source.ID)

	sendProgress(progress, fetchItemsUpdate(source))
	eligible, scanned, err := m.eligible(ctx, source, result.Cutoff)
	if err != nil {
		return nil, err
	}
	result.Scanned = scanned

	buckets := GroupByYear(eligible)
	sendProgress(progress, groupTracksUpdate(len(eligible), len(buckets)))
	m.logger.Info("selected tracks", "source", source.Name, "scanned", scanned, "eligible", len(eligible), "buckets", len(buckets), "cutoff", result.Cutoff.Format(time.DateOnly))

	if len(buckets) == 0 {
		m.logger.Info("nothing to move")
		return result, nil
	}

	if m.opts.DryRun {
		return m.plan(ctx, result, buckets, user.ID)
	}

	for i, bucket := range buckets {
		br, err := m.moveBucket(ctx, progress, i+1, len(buckets), bucket, source, user.ID, runAt)
		if err != nil {
			return result, err
		}
		result.Buckets = append(result.Buckets, *br)
		result.Total += br.Moved
	}

	sendProgress(progress, annotateUpdate(source.Name))
	if err := m.svc.UpdateDescription(ctx, source.ID, formatter.SourceDescription(source.Name, runAt, result.Total)); err != nil {
		return result, fmt.Errorf("annotate source playlist: %w", err)
	}

	m.logger.Info("run complete", "moved", result.Total, "buckets", len(result.Buckets))
	return result, nil
}

// eligible enumerates the source and keeps the tracks added on or before cutoff.
func (m *Mover) eligible(ctx context.Context, source *models.Playlist, cutoff time.Time) ([]models.PlaylistItem, int, error) {
	var items []models.PlaylistItem
	scanned := 0

	for item, err := range m.svc.PlaylistItems(ctx, source.ID) {
		if err != nil {
			return nil, scanned, fmt.Errorf("read source playlist: %w", err)
		}
		scanned++
		if Eligible(item.AddedAt, cutoff) {
			items = append(items, item)
		}
	}

	return items, scanned, nil
}

// moveBucket ensures the drawer, appends the bucket, removes it from the source and annotates the drawer.
func (m *Mover) moveBucket(ctx context.Context, progress chan<- ProgressUpdate, step, total int, bucket Bucket, source *models.Playlist, ownerID string, runAt time.Time) (*BucketResult, error) {
	name := formatter.DrawerName(bucket.Suffix)
	logger := m.logger.With("drawer", name)

	sendProgress(progress, ensureDrawerUpdate(step, total, name))
	dest, created, err := EnsurePlaylist(ctx, m.svc, name, ownerID, formatter.BaseDescription(bucket.Suffix, source.Name), logger)
	if err != nil {
		return nil, fmt.Errorf("ensure %s: %w", name, err)
	}
	if created {
		logger.Info("created drawer", "id", dest.ID)
	}

	uris := bucket.URIs()

	sendProgress(progress, addTracksUpdate(step, total, bucket, dest))
	if err := m.svc.AddItems(ctx, dest.ID, uris); err != nil {
		return nil, fmt.Errorf("add %d tracks to %s: %w", len(uris), name, err)
	}

	sendProgress(progress, removeTracksUpdate(step, total, bucket, source))
	if err := m.svc.RemoveItems(ctx, source.ID, uris); err != nil {
		return nil, fmt.Errorf("remove %d tracks from %s: %w", len(uris), source.Name, err)
	}

	sendProgress(progress, annotateUpdate(name))
	if err := m.svc.UpdateDescription(ctx, dest.ID, formatter.DrawerDescription(bucket.Suffix, source.Name, runAt, len(uris))); err != nil {
		return nil, fmt.Errorf("annotate %s: %w", name, err)
	}

	logger.Info("moved bucket", "tracks", len(uris))
	return &BucketResult{
		Suffix:        bucket.Suffix,
		Destination:   name,
		DestinationID: string(dest.ID),
		Moved:         len(uris),
		Created:       created,
	}, nil
}

// plan reports what a run would do without creating or mutating anything.
func (m *Mover) plan(ctx context.Context, result *RunResult, buckets []Bucket, ownerID string) (*RunResult, error) {
	for _, bucket := range buckets {
		name := formatter.DrawerName(bucket.Suffix)
		br := BucketResult{Suffix: bucket.Suffix, Destination: name, Moved: len(bucket.Items)}

		dest, err := FindPlaylist(ctx, m.svc, name, ownerID, m.logger)
		switch {
		case err == nil:
			br.DestinationID = string(dest.ID)
		case errors.Is(err, shared.ErrPlaylistNotFound):
			br.Created = true
		default:
			return result, fmt.Errorf("find %s: %w", name, err)
		}

		m.logger.Info("would move", "drawer", name, "tracks", br.Moved, "create", br.Created)
		result.Buckets = append(result.Buckets, br)
		result.Total += br.Moved
	}

	return result, nil
}
