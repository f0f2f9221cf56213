// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// HaraImageTable represents a single-image table. Both the status image
// and the map background share this shape and hold at most one row.
type HaraImageTable struct {
	Table     string
	ID        string
	ImageURL  string
	CreatedAt string
	UpdatedAt string
}

// HaraStatusImage is the schema definition for hara_status_image
var HaraStatusImage = HaraImageTable{
	Table:     "hara_status_image",
	ID:        "id",
	ImageURL:  "image_url",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

// HaraMapBackground is the schema definition for hara_map_background
var HaraMapBackground = HaraImageTable{
	Table:     "hara_map_background",
	ID:        "id",
	ImageURL:  "image_url",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}
