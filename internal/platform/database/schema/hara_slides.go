// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SlideTypeImage is the only slide_type the service writes.
const SlideTypeImage = "image"

// HaraSlidesTable represents the 'hara_slides' table
type HaraSlidesTable struct {
	Table        string
	ID           string
	SlideType    string
	ImageURL     string
	Caption      string
	CaptionStyle string
	SortOrder    string
	CreatedAt    string
}

// HaraSlides is the schema definition for hara_slides
var HaraSlides = HaraSlidesTable{
	Table:        "hara_slides",
	ID:           "id",
	SlideType:    "slide_type",
	ImageURL:     "image_url",
	Caption:      "caption",
	CaptionStyle: "caption_style",
	SortOrder:    "sort_order",
	CreatedAt:    "created_at",
}

func (t HaraSlidesTable) Columns() []string {
	return []string{t.ID, t.SlideType, t.ImageURL, t.Caption, t.CaptionStyle, t.SortOrder}
}
