// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds the table and column names of the remote store.
//
// Queries are assembled with fmt.Sprintf from these values so a column
// rename touches one file.
package schema

// HaraSettingsTable represents the 'hara_settings' table
type HaraSettingsTable struct {
	Table              string
	ID                 string
	SlideDuration      string
	AutoPlay           string
	TransitionDuration string
	CreatedAt          string
	UpdatedAt          string
}

// HaraSettings is the schema definition for hara_settings
var HaraSettings = HaraSettingsTable{
	Table:              "hara_settings",
	ID:                 "id",
	SlideDuration:      "slide_duration",
	AutoPlay:           "auto_play",
	TransitionDuration: "transition_duration",
	CreatedAt:          "created_at",
	UpdatedAt:          "updated_at",
}

func (t HaraSettingsTable) Columns() []string {
	return []string{t.ID, t.SlideDuration, t.AutoPlay, t.TransitionDuration}
}
