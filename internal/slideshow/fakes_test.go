// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/taibuivan/hara/internal/platform/dberr"
	"github.com/taibuivan/hara/internal/platform/kv"
	"github.com/taibuivan/hara/internal/slideshow"
)

// fakeRemote is an in-memory [slideshow.RemoteStore].
type fakeRemote struct {
	mu sync.Mutex

	settings      *slideshow.Settings
	slides        []slideshow.ImageSlide
	statusImage   string
	mapBackground string

	failReads  map[string]bool
	failWrites bool
	writes     []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{failReads: map[string]bool{}}
}

func (remote *fakeRemote) readErr(name string) error {
	if remote.failReads[name] {
		return fmt.Errorf("fake %s: %w", name, dberr.ErrUnavailable)
	}
	return nil
}

func (remote *fakeRemote) write(name string) error {
	remote.writes = append(remote.writes, name)
	if remote.failWrites {
		return fmt.Errorf("fake %s: %w", name, dberr.ErrUnavailable)
	}
	return nil
}

func (remote *fakeRemote) GetSettings(context.Context) (slideshow.Settings, bool, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.readErr("settings"); err != nil {
		return slideshow.Settings{}, false, err
	}
	if remote.settings == nil {
		return slideshow.Settings{}, false, nil
	}
	return *remote.settings, true, nil
}

func (remote *fakeRemote) UpsertSettings(_ context.Context, settings slideshow.Settings) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.write("settings"); err != nil {
		return err
	}
	settings.EditMode = false
	remote.settings = &settings
	return nil
}

func (remote *fakeRemote) ListImageSlides(context.Context) ([]slideshow.ImageSlide, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.readErr("slides"); err != nil {
		return nil, err
	}
	return append([]slideshow.ImageSlide{}, remote.slides...), nil
}

func (remote *fakeRemote) ReplaceImageSlides(_ context.Context, slides []slideshow.ImageSlide) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.write("slides"); err != nil {
		return err
	}
	remote.slides = append([]slideshow.ImageSlide{}, slides...)
	return nil
}

func (remote *fakeRemote) GetStatusImage(context.Context) (string, bool, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.readErr("status"); err != nil {
		return "", false, err
	}
	return remote.statusImage, remote.statusImage != "", nil
}

func (remote *fakeRemote) SaveStatusImage(_ context.Context, url string) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.write("status"); err != nil {
		return err
	}
	remote.statusImage = url
	return nil
}

func (remote *fakeRemote) GetMapBackground(context.Context) (string, bool, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.readErr("map"); err != nil {
		return "", false, err
	}
	return remote.mapBackground, remote.mapBackground != "", nil
}

func (remote *fakeRemote) SaveMapBackground(_ context.Context, url string) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	if err := remote.write("map"); err != nil {
		return err
	}
	remote.mapBackground = url
	return nil
}

func (remote *fakeRemote) writeLog() []string {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return append([]string{}, remote.writes...)
}

func (remote *fakeRemote) storedSlides() []slideshow.ImageSlide {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return append([]slideshow.ImageSlide{}, remote.slides...)
}

func (remote *fakeRemote) storedSettings() *slideshow.Settings {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return remote.settings
}

// newLocal returns a local repository over a fresh memory store.
func newLocal() *slideshow.LocalRepository {
	return slideshow.NewLocalRepository(kv.NewMemoryStore(), discardLogger())
}

// newCoordinator builds a coordinator and drains its replications at cleanup.
func newCoordinator(t *testing.T, remote slideshow.RemoteStore, local slideshow.LocalStore) *slideshow.Coordinator {
	t.Helper()
	coordinator := slideshow.NewCoordinator(remote, local, discardLogger())
	t.Cleanup(coordinator.Wait)
	return coordinator
}
