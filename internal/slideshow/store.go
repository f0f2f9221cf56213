// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow

import (
	"context"

	"github.com/taibuivan/hara/internal/platform/dberr"
)

// # Remote Store

// RemoteStore is the remote copy of the slideshow.
//
// Reads return found=false for a missing row; that is never an error.
// Every failure wraps [dberr.ErrUnavailable].
type RemoteStore interface {
	GetSettings(ctx context.Context) (Settings, bool, error)
	// UpsertSettings writes the persisted fields. EditMode is ignored.
	UpsertSettings(ctx context.Context, settings Settings) error

	// ListImageSlides returns the image slides ordered by SortOrder.
	ListImageSlides(ctx context.Context) ([]ImageSlide, error)
	// ReplaceImageSlides deletes every stored image slide and inserts
	// slides, with SortOrder taken from each slide's position.
	ReplaceImageSlides(ctx context.Context, slides []ImageSlide) error

	GetStatusImage(ctx context.Context) (string, bool, error)
	SaveStatusImage(ctx context.Context, url string) error

	GetMapBackground(ctx context.Context) (string, bool, error)
	SaveMapBackground(ctx context.Context, url string) error
}

// OfflineRemote is the [RemoteStore] of a kiosk without a remote database.
// Every call fails with [dberr.ErrUnavailable].
type OfflineRemote struct{}

func (OfflineRemote) GetSettings(context.Context) (Settings, bool, error) {
	return Settings{}, false, dberr.ErrUnavailable
}
func (OfflineRemote) UpsertSettings(context.Context, Settings) error { return dberr.ErrUnavailable }
func (OfflineRemote) ListImageSlides(context.Context) ([]ImageSlide, error) {
	return nil, dberr.ErrUnavailable
}
func (OfflineRemote) ReplaceImageSlides(context.Context, []ImageSlide) error {
	return dberr.ErrUnavailable
}
func (OfflineRemote) GetStatusImage(context.Context) (string, bool, error) {
	return "", false, dberr.ErrUnavailable
}
func (OfflineRemote) SaveStatusImage(context.Context, string) error { return dberr.ErrUnavailable }
func (OfflineRemote) GetMapBackground(context.Context) (string, bool, error) {
	return "", false, dberr.ErrUnavailable
}
func (OfflineRemote) SaveMapBackground(context.Context, string) error { return dberr.ErrUnavailable }

// # Local Store

// LocalStore is the on-device copy of the slideshow.
//
// Reads never fail: an absent or unreadable value yields the default.
// Writes never fail either; problems are logged and the write is dropped.
type LocalStore interface {
	Settings(ctx context.Context) Settings
	SetSettings(ctx context.Context, settings Settings)

	ImageSlides(ctx context.Context) []ImageSlide
	SetImageSlides(ctx context.Context, slides []ImageSlide)

	StatusImage(ctx context.Context) string
	SetStatusImage(ctx context.Context, url string)

	MapBackground(ctx context.Context) string
	SetMapBackground(ctx context.Context, url string)
}
