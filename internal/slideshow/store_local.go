// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/taibuivan/hara/internal/platform/constants"
	"github.com/taibuivan/hara/internal/platform/kv"
)

// LocalRepository implements [LocalStore] as JSON text over a [kv.Store].
type LocalRepository struct {
	store  kv.Store
	logger *slog.Logger
}

// NewLocalRepository wraps store.
func NewLocalRepository(store kv.Store, logger *slog.Logger) *LocalRepository {
	return &LocalRepository{store: store, logger: logger}
}

// # Settings

func (repository *LocalRepository) Settings(ctx context.Context) Settings {
	settings := DefaultSettings()
	if !repository.get(ctx, constants.KeySettings, &settings) {
		return DefaultSettings()
	}
	return settings
}

func (repository *LocalRepository) SetSettings(ctx context.Context, settings Settings) {
	repository.set(ctx, constants.KeySettings, settings)
}

// # Image Slides

func (repository *LocalRepository) ImageSlides(ctx context.Context) []ImageSlide {
	var slides []ImageSlide
	if !repository.get(ctx, constants.KeyImageSlides, &slides) || slides == nil {
		return []ImageSlide{}
	}
	return slides
}

func (repository *LocalRepository) SetImageSlides(ctx context.Context, slides []ImageSlide) {
	if slides == nil {
		slides = []ImageSlide{}
	}
	repository.set(ctx, constants.KeyImageSlides, slides)
}

// # Singleton Images

func (repository *LocalRepository) StatusImage(ctx context.Context) string {
	var url string
	if !repository.get(ctx, constants.KeyStatusImage, &url) {
		return ""
	}
	return url
}

func (repository *LocalRepository) SetStatusImage(ctx context.Context, url string) {
	repository.set(ctx, constants.KeyStatusImage, url)
}

func (repository *LocalRepository) MapBackground(ctx context.Context) string {
	var url string
	if !repository.get(ctx, constants.KeyMapBackground, &url) {
		return ""
	}
	return url
}

func (repository *LocalRepository) SetMapBackground(ctx context.Context, url string) {
	repository.set(ctx, constants.KeyMapBackground, url)
}

// # Encoding

// get decodes key into target. It reports false when the key is absent,
// unreadable or not valid JSON; target may then hold partial data.
func (repository *LocalRepository) get(ctx context.Context, key string, target any) bool {
	raw, found, err := repository.store.Get(ctx, key)
	if err != nil {
		repository.logger.WarnContext(ctx, "local_store_read_failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if !found || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		repository.logger.WarnContext(ctx, "local_store_value_corrupt", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}

func (repository *LocalRepository) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		repository.logger.ErrorContext(ctx, "local_store_encode_failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := repository.store.Set(ctx, key, string(raw)); err != nil {
		repository.logger.ErrorContext(ctx, "local_store_write_failed", slog.String("key", key), slog.Any("error", err))
	}
}
