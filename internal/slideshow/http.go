// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slideshow

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/hara/internal/platform/apperr"
	"github.com/taibuivan/hara/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/hara/internal/platform/request"
	"github.com/taibuivan/hara/internal/platform/respond"
)

// # Views

// SlideView is the JSON form of a [Slide], discriminated by Type.
//
// CaptionStyle is always the effective style, so the page never resolves
// defaults itself.
type SlideView struct {
	Type          Kind          `json:"type"`
	ID            string        `json:"id"`
	Index         int           `json:"index"`
	BackgroundURL string        `json:"backgroundUrl,omitempty"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	Caption       *string       `json:"caption,omitempty"`
	CaptionStyle  *CaptionStyle `json:"captionStyle,omitempty"`
	TextShadow    string        `json:"textShadow,omitempty"`
	// CustomStyle is false when CaptionStyle is the default record.
	CustomStyle bool `json:"customStyle,omitempty"`
}

// NewSlideView renders slide at display position index.
func NewSlideView(index int, slide Slide) SlideView {
	view := SlideView{Type: slide.Kind(), ID: slide.SlideID(), Index: index}

	switch s := slide.(type) {
	case WorldMapSlide:
		view.BackgroundURL = s.BackgroundURL
	case StatusSlide:
		view.ImageURL = s.ImageURL
	case *ImageSlide:
		style := EffectiveStyle(s.CaptionStyle)
		view.ImageURL = s.ImageURL
		view.Caption = s.Caption
		view.CaptionStyle = &style
		view.TextShadow = style.TextShadow()
		view.CustomStyle = s.CaptionStyle != nil
	default:
		panic(fmt.Sprintf("slideshow: unknown slide variant %T", slide))
	}

	return view
}

// ContentView is everything a kiosk page renders apart from the engine state.
type ContentView struct {
	Settings Settings     `json:"settings"`
	Slides   []SlideView  `json:"slides"`
	Panel    []PanelEntry `json:"panel"`
}

// NewContentView renders snapshot.
func NewContentView(snapshot Snapshot) ContentView {
	slides := snapshot.Slides()
	views := make([]SlideView, len(slides))
	for i, slide := range slides {
		views[i] = NewSlideView(i, slide)
	}
	return ContentView{
		Settings: snapshot.Settings,
		Slides:   views,
		Panel:    panelEntries(slides),
	}
}

// SlideshowView is the response of GET /slideshow.
type SlideshowView struct {
	State   State       `json:"state"`
	Content ContentView `json:"content"`
	Source  Source      `json:"source"`
}

// NavigationResult is the response of the navigation endpoints.
type NavigationResult struct {
	Moved bool  `json:"moved"`
	State State `json:"state"`
}

// # Requests

type jumpRequest struct {
	Index int `json:"index"`
}

type addSlideRequest struct {
	ImageURL string  `json:"imageUrl"`
	Caption  *string `json:"caption"`
}

// updateSlideRequest patches an image slide. An empty caption removes it.
type updateSlideRequest struct {
	ImageURL *string `json:"imageUrl"`
	Caption  *string `json:"caption"`
}

type imageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// # Handler

// Handler serves the slideshow API used by the kiosk page.
type Handler struct {
	coordinator *Coordinator
	engine      *Engine
	hub         *Hub
}

func NewHandler(coordinator *Coordinator, engine *Engine, hub *Hub) *Handler {
	return &Handler{coordinator: coordinator, engine: engine, hub: hub}
}

// Routes returns the slideshow REST routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithOrigin(request.Context(), "http")))
		})
	})

	// ## Playback
	router.Get("/slideshow", handler.getSlideshow)
	router.Post("/slideshow/next", handler.next)
	router.Post("/slideshow/prev", handler.prev)
	router.Post("/slideshow/jump", handler.jump)

	// ## Settings
	router.Get("/settings", handler.getSettings)
	router.Patch("/settings", handler.updateSettings)

	// ## Image Slides
	router.Get("/slides", handler.listSlides)
	router.Post("/slides", handler.addSlide)
	router.Put("/slides", handler.replaceSlides)
	router.Patch("/slides/{id}", handler.updateSlide)
	router.Put("/slides/{id}/caption-style", handler.setCaptionStyle)
	router.Delete("/slides/{id}/caption-style", handler.clearCaptionStyle)
	router.Delete("/slides/{id}", handler.removeSlide)

	// ## Fixed Slides
	router.Put("/status-image", handler.setStatusImage)
	router.Put("/map-background", handler.setMapBackground)

	return router
}

// Stream returns the WebSocket endpoint. It is mounted apart from [Handler.Routes]
// because a stream outlives the request timeout.
func (handler *Handler) Stream() http.Handler {
	return handler.hub
}

// # Playback

/*
GET /api/v1/slideshow.

Description: Returns engine state, rendered content and the load source.

Response:
  - 200: SlideshowView
*/
func (handler *Handler) getSlideshow(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, SlideshowView{
		State:   handler.engine.State(),
		Content: NewContentView(handler.coordinator.Snapshot()),
		Source:  handler.coordinator.Source(),
	})
}

func (handler *Handler) next(writer http.ResponseWriter, request *http.Request) {
	moved := handler.engine.Next(true)
	respond.OK(writer, NavigationResult{Moved: moved, State: handler.engine.State()})
}

func (handler *Handler) prev(writer http.ResponseWriter, request *http.Request) {
	moved := handler.engine.Prev(true)
	respond.OK(writer, NavigationResult{Moved: moved, State: handler.engine.State()})
}

/*
POST /api/v1/slideshow/jump.

Request:
  - index: int, display position

Response:
  - 200: NavigationResult (moved is false for an ignored jump)
  - 400: ErrInvalidJSON
*/
func (handler *Handler) jump(writer http.ResponseWriter, request *http.Request) {
	var input jumpRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	moved := handler.engine.JumpTo(input.Index)
	respond.OK(writer, NavigationResult{Moved: moved, State: handler.engine.State()})
}

// # Settings

func (handler *Handler) getSettings(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.coordinator.Settings())
}

/*
PATCH /api/v1/settings.

Request (all optional):
  - slideDuration: int, seconds in 1..60
  - autoPlay: bool
  - transitionDuration: int, milliseconds
  - editMode: bool, kept on this device only

Response:
  - 200: Settings
  - 400: ErrInvalidJSON | VALIDATION_ERROR
*/
func (handler *Handler) updateSettings(writer http.ResponseWriter, request *http.Request) {
	var patch SettingsPatch
	if err := requestutil.DecodeJSON(writer, request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	settings, err := handler.coordinator.UpdateSettings(request.Context(), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, settings)
}

// # Image Slides

func (handler *Handler) listSlides(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.coordinator.Snapshot().ImageSlides)
}

/*
POST /api/v1/slides.

Request:
  - imageUrl: string, may be empty
  - caption: string, optional

Response:
  - 201: ImageSlide
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) addSlide(writer http.ResponseWriter, request *http.Request) {
	var input addSlideRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	slide, err := handler.coordinator.AddImageSlide(request.Context(), input.ImageURL, input.Caption)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, slide)
}

/*
PUT /api/v1/slides.

Description: Replaces the whole image slide list. The array order becomes
the display order.

Response:
  - 200: []ImageSlide with renumbered sortOrder
  - 400: ErrInvalidJSON | VALIDATION_ERROR
*/
func (handler *Handler) replaceSlides(writer http.ResponseWriter, request *http.Request) {
	var input []ImageSlide
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	slides, err := handler.coordinator.ReplaceImageSlides(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, slides)
}

func (handler *Handler) updateSlide(writer http.ResponseWriter, request *http.Request) {
	var input updateSlideRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	patch := ImageSlidePatch{ImageURL: input.ImageURL, Caption: input.Caption}
	if input.Caption != nil && *input.Caption == "" {
		patch.Caption = nil
		patch.ClearCaption = true
	}

	slide, err := handler.coordinator.UpdateImageSlide(request.Context(), requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, slide)
}

func (handler *Handler) setCaptionStyle(writer http.ResponseWriter, request *http.Request) {
	var style CaptionStyle
	if err := requestutil.DecodeJSON(writer, request, &style); err != nil {
		respond.Error(writer, request, err)
		return
	}

	slide, err := handler.coordinator.UpdateImageSlide(request.Context(), requestutil.ID(request, "id"), ImageSlidePatch{CaptionStyle: &style})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, slide)
}

func (handler *Handler) clearCaptionStyle(writer http.ResponseWriter, request *http.Request) {
	slide, err := handler.coordinator.UpdateImageSlide(request.Context(), requestutil.ID(request, "id"), ImageSlidePatch{ClearStyle: true})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, slide)
}

func (handler *Handler) removeSlide(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	if id == WorldMapID || id == StatusID {
		respond.Error(writer, request, apperr.ValidationError("The "+id+" slide cannot be deleted"))
		return
	}

	if err := handler.coordinator.RemoveImageSlide(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Fixed Slides

func (handler *Handler) setStatusImage(writer http.ResponseWriter, request *http.Request) {
	var input imageRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.coordinator.UpdateStatusImage(request.Context(), input.ImageURL); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

func (handler *Handler) setMapBackground(writer http.ResponseWriter, request *http.Request) {
	var input imageRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.coordinator.UpdateMapBackground(request.Context(), input.ImageURL); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, input)
}

// # Wiring

// Connect routes coordinator changes into engine and hub, and engine states
// into hub. Call it once before [Coordinator.Load].
func Connect(coordinator *Coordinator, engine *Engine, hub *Hub) {
	engine.SetObserver(hub.BroadcastState)
	hub.BroadcastState(engine.State())
	coordinator.OnChange(func(snapshot Snapshot) {
		engine.Configure(snapshot.EngineConfig())
		hub.BroadcastContent(snapshot)
	})
}
