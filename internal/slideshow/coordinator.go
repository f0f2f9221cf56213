// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/hara/internal/platform/apperr"
	"github.com/taibuivan/hara/internal/platform/constants"
	"github.com/taibuivan/hara/internal/platform/ctxutil"
	"github.com/taibuivan/hara/internal/platform/validate"
	"github.com/taibuivan/hara/pkg/pointer"
	"github.com/taibuivan/hara/pkg/slice"
	"github.com/taibuivan/hara/pkg/uuid"
)

// # Snapshot

// Snapshot is the persisted slideshow content.
type Snapshot struct {
	Settings         Settings     `json:"settings"`
	StatusImageURL   string       `json:"statusImageUrl"`
	MapBackgroundURL string       `json:"mapBackgroundUrl"`
	ImageSlides      []ImageSlide `json:"imageSlides"`
}

func emptySnapshot() Snapshot {
	return Snapshot{Settings: DefaultSettings(), ImageSlides: []ImageSlide{}}
}

func (snapshot Snapshot) clone() Snapshot {
	snapshot.ImageSlides = cloneImageSlides(snapshot.ImageSlides)
	return snapshot
}

// SlideCount is the total number of slides, the two fixed ones included.
func (snapshot Snapshot) SlideCount() int {
	return FixedSlideCount + len(snapshot.ImageSlides)
}

// Slides lists every slide in display order.
func (snapshot Snapshot) Slides() []Slide {
	slides := make([]Slide, 0, snapshot.SlideCount())
	slides = append(slides,
		WorldMapSlide{BackgroundURL: snapshot.MapBackgroundURL},
		StatusSlide{ImageURL: snapshot.StatusImageURL},
	)
	return append(slides, slice.Map(snapshot.ImageSlides, func(image ImageSlide) Slide {
		image = image.clone()
		return &image
	})...)
}

// EngineConfig converts the snapshot into engine parameters.
func (snapshot Snapshot) EngineConfig() Config {
	return Config{
		SlideCount:         snapshot.SlideCount(),
		SlideDuration:      time.Duration(snapshot.Settings.SlideDuration) * time.Second,
		TransitionDuration: time.Duration(snapshot.Settings.TransitionDuration) * time.Millisecond,
		AutoPlay:           snapshot.Settings.AutoPlay,
		EditMode:           snapshot.Settings.EditMode,
	}
}

// Source names the store a [Coordinator.Load] was served from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// # Coordinator

var errRemoteNotConfigured = errors.New("slideshow: remote store not configured")

/*
Coordinator owns the slideshow snapshot and keeps both stores in step with it.

Every edit follows the same protocol:
 1. Validate. A rejected edit changes nothing.
 2. Replace the in-memory snapshot.
 3. Write the local store before returning.
 4. Queue a remote write. The caller never waits for it; a failure is logged
    as remote_replication_failed and not retried.

Remote writes run one at a time, in the order the edits were committed.
Listeners registered with [Coordinator.OnChange] see snapshots in the same order.
*/
type Coordinator struct {
	remote  RemoteStore
	local   LocalStore
	logger  *slog.Logger
	offline bool

	mu              sync.Mutex
	snapshot        Snapshot
	source          Source
	lastReplication chan struct{}

	// notifyMu is taken before mu is released so listeners run in commit order.
	notifyMu  sync.Mutex
	listeners []func(Snapshot)

	inflight sync.WaitGroup
}

// NewCoordinator returns a coordinator holding the default snapshot.
// A nil remote is treated as [OfflineRemote].
func NewCoordinator(remote RemoteStore, local LocalStore, logger *slog.Logger) *Coordinator {
	if remote == nil {
		remote = OfflineRemote{}
	}
	_, offline := remote.(OfflineRemote)

	return &Coordinator{
		remote:   remote,
		local:    local,
		logger:   logger,
		offline:  offline,
		snapshot: emptySnapshot(),
		source:   SourceLocal,
	}
}

// OnChange registers fn to receive every new snapshot, [Coordinator.Load]
// included. fn must treat the snapshot as read-only and must not call back
// into the coordinator.
func (coordinator *Coordinator) OnChange(fn func(Snapshot)) {
	coordinator.notifyMu.Lock()
	defer coordinator.notifyMu.Unlock()
	coordinator.listeners = append(coordinator.listeners, fn)
}

// Wait blocks until every queued remote write has finished.
func (coordinator *Coordinator) Wait() {
	coordinator.inflight.Wait()
}

// # Load

/*
Load replaces the snapshot with stored content.

Description: Reads the four remote collections concurrently. If any read
fails the whole snapshot comes from the local store instead; the two sources
are never mixed. Rows missing remotely keep their defaults. Edit mode is off
after every load.
*/
func (coordinator *Coordinator) Load(ctx context.Context) Source {
	source := SourceRemote
	snapshot, err := coordinator.loadRemote(ctx)
	if err != nil {
		if !coordinator.offline {
			coordinator.logger.WarnContext(ctx, "remote_load_failed", slog.Any("error", err))
		}
		snapshot = coordinator.loadLocal(ctx)
		source = SourceLocal
	}
	snapshot.Settings.EditMode = false

	coordinator.mu.Lock()
	coordinator.snapshot = snapshot
	coordinator.source = source
	coordinator.publishLocked(snapshot.clone())

	coordinator.logger.InfoContext(ctx, "slideshow_loaded",
		slog.String("source", string(source)),
		slog.Int("image_slides", len(snapshot.ImageSlides)),
	)
	return source
}

func (coordinator *Coordinator) loadRemote(ctx context.Context) (Snapshot, error) {
	if coordinator.offline {
		return Snapshot{}, errRemoteNotConfigured
	}

	loadCtx, cancel := context.WithTimeout(ctx, constants.RemoteLoadTimeout)
	defer cancel()

	snapshot := emptySnapshot()
	group, groupCtx := errgroup.WithContext(loadCtx)

	group.Go(func() error {
		settings, found, err := coordinator.remote.GetSettings(groupCtx)
		if err != nil {
			return err
		}
		if found {
			snapshot.Settings = settings
		}
		return nil
	})
	group.Go(func() error {
		slides, err := coordinator.remote.ListImageSlides(groupCtx)
		if err != nil {
			return err
		}
		if slides != nil {
			snapshot.ImageSlides = slides
		}
		return nil
	})
	group.Go(func() error {
		url, found, err := coordinator.remote.GetStatusImage(groupCtx)
		if err != nil {
			return err
		}
		if found {
			snapshot.StatusImageURL = url
		}
		return nil
	})
	group.Go(func() error {
		url, found, err := coordinator.remote.GetMapBackground(groupCtx)
		if err != nil {
			return err
		}
		if found {
			snapshot.MapBackgroundURL = url
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

func (coordinator *Coordinator) loadLocal(ctx context.Context) Snapshot {
	return Snapshot{
		Settings:         coordinator.local.Settings(ctx),
		StatusImageURL:   coordinator.local.StatusImage(ctx),
		MapBackgroundURL: coordinator.local.MapBackground(ctx),
		ImageSlides:      coordinator.local.ImageSlides(ctx),
	}
}

// # Reads

// Snapshot returns a copy of the current content.
func (coordinator *Coordinator) Snapshot() Snapshot {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.snapshot.clone()
}

// Source reports where the last [Coordinator.Load] read from.
func (coordinator *Coordinator) Source() Source {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.source
}

func (coordinator *Coordinator) Settings() Settings {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.snapshot.Settings
}

// Slides lists every slide in display order.
func (coordinator *Coordinator) Slides() []Slide {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.snapshot.Slides()
}

func (coordinator *Coordinator) SlideCount() int {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.snapshot.SlideCount()
}

// # Settings Edits

// UpdateSettings applies patch. Only a patch touching a persisted field is
// written remotely; an edit mode toggle stays on the device.
func (coordinator *Coordinator) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	var updated Settings
	err := coordinator.commit(ctx, "update_settings",
		func(snapshot *Snapshot) error {
			next := patch.apply(snapshot.Settings)
			v := &validate.Validator{}
			validateSettings(v, next)
			if err := v.Err(); err != nil {
				return err
			}
			snapshot.Settings = next
			updated = next
			return nil
		},
		func(ctx context.Context, snapshot Snapshot) {
			coordinator.local.SetSettings(ctx, snapshot.Settings)
		},
		func(snapshot Snapshot) func(context.Context) error {
			if !patch.persisted() {
				return nil
			}
			return func(ctx context.Context) error {
				return coordinator.remote.UpsertSettings(ctx, snapshot.Settings)
			}
		},
	)
	return updated, err
}

// SetEditMode switches edit mode on or off.
func (coordinator *Coordinator) SetEditMode(ctx context.Context, on bool) error {
	_, err := coordinator.UpdateSettings(ctx, SettingsPatch{EditMode: &on})
	return err
}

// # Singleton Image Edits

func (coordinator *Coordinator) UpdateStatusImage(ctx context.Context, url string) error {
	return coordinator.commit(ctx, "update_status_image",
		func(snapshot *Snapshot) error {
			v := &validate.Validator{}
			if err := v.ImageURL("imageUrl", url).Err(); err != nil {
				return err
			}
			snapshot.StatusImageURL = url
			return nil
		},
		func(ctx context.Context, snapshot Snapshot) {
			coordinator.local.SetStatusImage(ctx, snapshot.StatusImageURL)
		},
		func(snapshot Snapshot) func(context.Context) error {
			return func(ctx context.Context) error {
				return coordinator.remote.SaveStatusImage(ctx, snapshot.StatusImageURL)
			}
		},
	)
}

func (coordinator *Coordinator) UpdateMapBackground(ctx context.Context, url string) error {
	return coordinator.commit(ctx, "update_map_background",
		func(snapshot *Snapshot) error {
			v := &validate.Validator{}
			if err := v.ImageURL("imageUrl", url).Err(); err != nil {
				return err
			}
			snapshot.MapBackgroundURL = url
			return nil
		},
		func(ctx context.Context, snapshot Snapshot) {
			coordinator.local.SetMapBackground(ctx, snapshot.MapBackgroundURL)
		},
		func(snapshot Snapshot) func(context.Context) error {
			return func(ctx context.Context) error {
				return coordinator.remote.SaveMapBackground(ctx, snapshot.MapBackgroundURL)
			}
		},
	)
}

// # Image Slide Edits

// ReplaceImageSlides swaps in a whole new list. SortOrder is rewritten to
// each slide's position, so reordering is a replace with the new order.
func (coordinator *Coordinator) ReplaceImageSlides(ctx context.Context, slides []ImageSlide) ([]ImageSlide, error) {
	var replaced []ImageSlide
	err := coordinator.editImageSlides(ctx, "replace_image_slides", func([]ImageSlide) ([]ImageSlide, error) {
		replaced = cloneImageSlides(slides)
		return replaced, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneImageSlides(replaced), nil
}

// AddImageSlide appends a new image slide with a fresh id. An empty url is
// accepted; the slide shows a placeholder until an image is set.
func (coordinator *Coordinator) AddImageSlide(ctx context.Context, url string, caption *string) (ImageSlide, error) {
	var added ImageSlide
	err := coordinator.editImageSlides(ctx, "add_image_slide", func(current []ImageSlide) ([]ImageSlide, error) {
		added = ImageSlide{
			ID:        uuid.New(),
			ImageURL:  url,
			Caption:   pointer.Clone(caption),
			SortOrder: len(current),
		}
		return append(current, added), nil
	})
	return added.clone(), err
}

// RemoveImageSlide deletes the image slide with id and compacts SortOrder.
func (coordinator *Coordinator) RemoveImageSlide(ctx context.Context, id string) error {
	return coordinator.editImageSlides(ctx, "remove_image_slide", func(current []ImageSlide) ([]ImageSlide, error) {
		remaining := slice.Filter(current, func(s ImageSlide) bool { return s.ID != id })
		if len(remaining) == len(current) {
			return nil, apperr.NotFound("Slide")
		}
		return remaining, nil
	})
}

// UpdateImageSlide applies patch to the image slide with id.
func (coordinator *Coordinator) UpdateImageSlide(ctx context.Context, id string, patch ImageSlidePatch) (ImageSlide, error) {
	var updated ImageSlide
	err := coordinator.editImageSlides(ctx, "update_image_slide", func(current []ImageSlide) ([]ImageSlide, error) {
		for i := range current {
			if current[i].ID == id {
				current[i] = patch.apply(current[i])
				updated = current[i]
				return current, nil
			}
		}
		return nil, apperr.NotFound("Slide")
	})
	return updated.clone(), err
}

// editImageSlides commits the list edit returns. The list is validated as a
// whole and SortOrder is renumbered 0..n-1 before it is stored.
func (coordinator *Coordinator) editImageSlides(ctx context.Context, operation string, edit func([]ImageSlide) ([]ImageSlide, error)) error {
	return coordinator.commit(ctx, operation,
		func(snapshot *Snapshot) error {
			next, err := edit(snapshot.ImageSlides)
			if err != nil {
				return err
			}
			if next == nil {
				next = []ImageSlide{}
			}
			if err := validateImageSlides(next); err != nil {
				return err
			}
			for i := range next {
				next[i].SortOrder = i
			}
			snapshot.ImageSlides = next
			return nil
		},
		func(ctx context.Context, snapshot Snapshot) {
			coordinator.local.SetImageSlides(ctx, snapshot.ImageSlides)
		},
		func(snapshot Snapshot) func(context.Context) error {
			slides := snapshot.ImageSlides
			return func(ctx context.Context) error {
				return coordinator.remote.ReplaceImageSlides(ctx, slides)
			}
		},
	)
}

func validateImageSlides(slides []ImageSlide) error {
	v := &validate.Validator{}
	seen := make(map[string]struct{}, len(slides))
	for i, s := range slides {
		field := fmt.Sprintf("slides[%d]", i)
		validateImageSlide(v, field, s)

		_, duplicate := seen[s.ID]
		v.Custom(field+".id", duplicate && s.ID != "", "Slide ids must be unique")
		seen[s.ID] = struct{}{}
	}
	return v.Err()
}

// # Panel

// PanelEntry is one row of the edit-mode slide list.
type PanelEntry struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Type      Kind   `json:"type"`
	Label     string `json:"label"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Deletable bool   `json:"deletable"`
}

// PanelEntries lists every slide with a label and thumbnail for the edit panel.
func (coordinator *Coordinator) PanelEntries() []PanelEntry {
	return panelEntries(coordinator.Slides())
}

func panelEntries(slides []Slide) []PanelEntry {
	entries := make([]PanelEntry, len(slides))
	for i, slide := range slides {
		entry := PanelEntry{
			Index:     i,
			ID:        slide.SlideID(),
			Type:      slide.Kind(),
			Deletable: Deletable(slide),
		}
		switch s := slide.(type) {
		case WorldMapSlide:
			entry.Label = "World map"
			entry.Thumbnail = s.BackgroundURL
		case StatusSlide:
			entry.Label = "Status"
			entry.Thumbnail = s.ImageURL
		case *ImageSlide:
			entry.Label = fmt.Sprintf("Slide %d", i+1)
			if s.Caption != nil && *s.Caption != "" {
				entry.Label = *s.Caption
			}
			entry.Thumbnail = s.ImageURL
		default:
			panic(fmt.Sprintf("slideshow: unknown slide variant %T", slide))
		}
		entries[i] = entry
	}
	return entries
}

// # Commit Protocol

/*
commit runs one edit through the write protocol.

Parameters:
  - mutate: validates and edits a private copy; an error aborts the edit
  - persist: writes the local store
  - replicate: returns the remote write for the committed snapshot, or nil
    when nothing needs replicating
*/
func (coordinator *Coordinator) commit(
	ctx context.Context,
	operation string,
	mutate func(*Snapshot) error,
	persist func(context.Context, Snapshot),
	replicate func(Snapshot) func(context.Context) error,
) error {
	coordinator.mu.Lock()

	next := coordinator.snapshot.clone()
	if err := mutate(&next); err != nil {
		coordinator.mu.Unlock()
		return err
	}
	coordinator.snapshot = next

	persist(context.WithoutCancel(ctx), next.clone())
	if write := replicate(next.clone()); write != nil {
		coordinator.replicateLocked(ctx, operation, write)
	}

	coordinator.publishLocked(next.clone())
	return nil
}

// replicateLocked queues write behind every earlier remote write.
func (coordinator *Coordinator) replicateLocked(ctx context.Context, operation string, write func(context.Context) error) {
	if coordinator.offline {
		return
	}

	previous := coordinator.lastReplication
	done := make(chan struct{})
	coordinator.lastReplication = done

	coordinator.inflight.Add(1)
	go func() {
		defer coordinator.inflight.Done()
		defer close(done)
		if previous != nil {
			<-previous
		}

		remoteCtx, cancel := ctxutil.Detach(ctx, constants.RemoteWriteTimeout)
		defer cancel()

		if err := write(remoteCtx); err != nil {
			coordinator.logger.WarnContext(remoteCtx, "remote_replication_failed",
				slog.String("operation", operation),
				slog.String("origin", ctxutil.GetOrigin(remoteCtx)),
				slog.String("request_id", ctxutil.GetRequestID(remoteCtx)),
				slog.Any("error", err),
			)
			return
		}
		coordinator.logger.DebugContext(remoteCtx, "remote_replicated", slog.String("operation", operation))
	}()
}

// publishLocked releases mu and hands snapshot to every listener.
func (coordinator *Coordinator) publishLocked(snapshot Snapshot) {
	coordinator.notifyMu.Lock()
	coordinator.mu.Unlock()
	defer coordinator.notifyMu.Unlock()

	for _, listener := range coordinator.listeners {
		listener(snapshot)
	}
}
