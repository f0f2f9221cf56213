// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slideshow implements the kiosk slideshow: the slide data model, the
coordinator that owns the persisted snapshot, the timing engine that drives
the displayed slide, and the HTTP/WebSocket surface the kiosk page uses.

Display order is fixed at the front:

	0: world map   (singleton, not deletable)
	1: status      (singleton, not deletable)
	2..n+1: image slides in SortOrder

Every site that branches on a slide variant uses an exhaustive type switch
over [WorldMapSlide], [StatusSlide] and [*ImageSlide].
*/
package slideshow

import (
	"fmt"
	"strconv"

	"github.com/taibuivan/hara/internal/platform/validate"
	"github.com/taibuivan/hara/pkg/pointer"
)

// # Slide Variants

// Kind is the slide discriminant, serialized as the JSON "type" field.
type Kind string

const (
	KindWorldMap Kind = "worldMap"
	KindStatus   Kind = "status"
	KindImage    Kind = "image"
)

// Fixed identifiers of the two singleton slides.
const (
	WorldMapID = "worldmap"
	StatusID   = "status"
)

// FixedSlideCount is the number of singleton slides ahead of the image slides.
const FixedSlideCount = 2

// Slide is the sealed sum type over the three slide variants.
type Slide interface {
	SlideID() string
	Kind() Kind
	sealed()
}

// WorldMapSlide is the world clock map, always first.
type WorldMapSlide struct {
	BackgroundURL string
}

// StatusSlide is the status image, always second.
type StatusSlide struct {
	ImageURL string
}

// ImageSlide is a user-managed captioned image.
type ImageSlide struct {
	ID           string        `json:"id"`
	ImageURL     string        `json:"imageUrl"`
	Caption      *string       `json:"caption,omitempty"`
	CaptionStyle *CaptionStyle `json:"captionStyle,omitempty"`
	SortOrder    int           `json:"sortOrder"`
}

func (WorldMapSlide) SlideID() string { return WorldMapID }
func (WorldMapSlide) Kind() Kind      { return KindWorldMap }
func (WorldMapSlide) sealed()         {}

func (StatusSlide) SlideID() string { return StatusID }
func (StatusSlide) Kind() Kind      { return KindStatus }
func (StatusSlide) sealed()         {}

func (s *ImageSlide) SlideID() string { return s.ID }
func (s *ImageSlide) Kind() Kind      { return KindImage }
func (s *ImageSlide) sealed()         {}

// Deletable reports whether the slide can be removed from the rotation.
func Deletable(slide Slide) bool {
	switch slide.(type) {
	case WorldMapSlide, StatusSlide:
		return false
	case *ImageSlide:
		return true
	default:
		panic(fmt.Sprintf("slideshow: unknown slide variant %T", slide))
	}
}

// clone returns a deep copy so snapshots never share pointees.
func (s ImageSlide) clone() ImageSlide {
	s.Caption = pointer.Clone(s.Caption)
	s.CaptionStyle = pointer.Clone(s.CaptionStyle)
	return s
}

func cloneImageSlides(slides []ImageSlide) []ImageSlide {
	out := make([]ImageSlide, len(slides))
	for i, s := range slides {
		out[i] = s.clone()
	}
	return out
}

// # Caption Style

// CaptionStyle bounds.
const (
	FontSizeMin      = 16
	FontSizeMax      = 100
	FontWeightMin    = 100
	FontWeightMax    = 900
	FontWeightStep   = 100
	LetterSpacingMin = -2
	LetterSpacingMax = 10
	ShadowMin        = -100
	ShadowMax        = 100
)

// CaptionStyle controls how an image slide's caption is drawn.
type CaptionStyle struct {
	FontSize      int    `json:"fontSize"`
	FontWeight    int    `json:"fontWeight"`
	Color         string `json:"color"`
	LetterSpacing int    `json:"letterSpacing"`
	// ShadowOpacity is -100..100: negative draws a light shadow, positive a
	// dark one, 0 none.
	ShadowOpacity int `json:"shadowOpacity"`
}

// DefaultCaptionStyle applies whenever a slide has no style of its own.
var DefaultCaptionStyle = CaptionStyle{
	FontSize:      60,
	FontWeight:    400,
	Color:         "#ffffff",
	LetterSpacing: 0,
	ShadowOpacity: 0,
}

// EffectiveStyle returns style, or the whole default record when nil.
// There is no per-field merge.
func EffectiveStyle(style *CaptionStyle) CaptionStyle {
	if style == nil {
		return DefaultCaptionStyle
	}
	return *style
}

// TextShadow renders ShadowOpacity as a CSS text-shadow value.
func (style CaptionStyle) TextShadow() string {
	if style.ShadowOpacity == 0 {
		return "none"
	}

	rgb := "0,0,0"
	if style.ShadowOpacity < 0 {
		rgb = "255,255,255"
	}

	magnitude := style.ShadowOpacity
	if magnitude < 0 {
		magnitude = -magnitude
	}
	alpha := float64(magnitude) / 100

	return fmt.Sprintf("0 2px 8px rgba(%s,%s), 0 4px 16px rgba(%s,%s)",
		rgb, strconv.FormatFloat(alpha, 'f', -1, 64),
		rgb, strconv.FormatFloat(alpha*0.5, 'f', -1, 64),
	)
}

func validateCaptionStyle(v *validate.Validator, field string, style CaptionStyle) {
	v.Range(field+".fontSize", style.FontSize, FontSizeMin, FontSizeMax).
		Range(field+".fontWeight", style.FontWeight, FontWeightMin, FontWeightMax).
		Step(field+".fontWeight", style.FontWeight, FontWeightStep).
		HexColor(field+".color", style.Color).
		Range(field+".letterSpacing", style.LetterSpacing, LetterSpacingMin, LetterSpacingMax).
		Range(field+".shadowOpacity", style.ShadowOpacity, ShadowMin, ShadowMax)
}

// # Settings

// Settings bounds. TransitionDurationMax is a sanity cap; the kiosk
// control only offers 200..1000.
const (
	SlideDurationMin      = 1
	SlideDurationMax      = 60
	TransitionDurationMin = 0
	TransitionDurationMax = 60000
)

// DefaultSettingsID is the key of the singleton settings row.
const DefaultSettingsID = "default"

// Settings are the global slideshow parameters.
type Settings struct {
	ID string `json:"id"`
	// SlideDuration is the auto-advance interval in seconds.
	SlideDuration int  `json:"slideDuration"`
	AutoPlay      bool `json:"autoPlay"`
	// TransitionDuration is the fade length in milliseconds.
	TransitionDuration int `json:"transitionDuration"`
	// EditMode is session state. It is never replicated and is false after every load.
	EditMode bool `json:"editMode"`
}

// DefaultSettings returns the settings of a store that has never been written.
func DefaultSettings() Settings {
	return Settings{
		ID:                 DefaultSettingsID,
		SlideDuration:      10,
		AutoPlay:           true,
		TransitionDuration: 500,
		EditMode:           false,
	}
}

func validateSettings(v *validate.Validator, s Settings) {
	v.Required("id", s.ID).
		Range("slideDuration", s.SlideDuration, SlideDurationMin, SlideDurationMax).
		Range("transitionDuration", s.TransitionDuration, TransitionDurationMin, TransitionDurationMax)
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	SlideDuration      *int  `json:"slideDuration,omitempty"`
	AutoPlay           *bool `json:"autoPlay,omitempty"`
	TransitionDuration *int  `json:"transitionDuration,omitempty"`
	EditMode           *bool `json:"editMode,omitempty"`
}

// apply returns s with the patch's non-nil fields applied.
func (patch SettingsPatch) apply(s Settings) Settings {
	if patch.SlideDuration != nil {
		s.SlideDuration = *patch.SlideDuration
	}
	if patch.AutoPlay != nil {
		s.AutoPlay = *patch.AutoPlay
	}
	if patch.TransitionDuration != nil {
		s.TransitionDuration = *patch.TransitionDuration
	}
	if patch.EditMode != nil {
		s.EditMode = *patch.EditMode
	}
	return s
}

// persisted reports whether the patch touches a remotely stored field.
func (patch SettingsPatch) persisted() bool {
	return patch.SlideDuration != nil || patch.AutoPlay != nil || patch.TransitionDuration != nil
}

// ImageSlidePatch is a partial image slide update; nil fields are left unchanged.
//
// ClearCaption and ClearStyle remove the optional value; they win over
// Caption and CaptionStyle when both are set.
type ImageSlidePatch struct {
	ImageURL     *string
	Caption      *string
	ClearCaption bool
	CaptionStyle *CaptionStyle
	ClearStyle   bool
}

// apply returns s with the patch applied.
func (patch ImageSlidePatch) apply(s ImageSlide) ImageSlide {
	if patch.ImageURL != nil {
		s.ImageURL = *patch.ImageURL
	}
	if patch.Caption != nil {
		s.Caption = pointer.Clone(patch.Caption)
	}
	if patch.ClearCaption {
		s.Caption = nil
	}
	if patch.CaptionStyle != nil {
		s.CaptionStyle = pointer.Clone(patch.CaptionStyle)
	}
	if patch.ClearStyle {
		s.CaptionStyle = nil
	}
	return s
}

// CaptionMaxLength caps a caption in characters.
const CaptionMaxLength = 500

func validateImageSlide(v *validate.Validator, field string, s ImageSlide) {
	v.Required(field+".id", s.ID).
		ImageURL(field+".imageUrl", s.ImageURL).
		MaxLen(field+".caption", pointer.Val(s.Caption), CaptionMaxLength)
	if s.CaptionStyle != nil {
		validateCaptionStyle(v, field+".captionStyle", *s.CaptionStyle)
	}
}
