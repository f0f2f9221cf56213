// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hara/internal/platform/apperr"
	"github.com/taibuivan/hara/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "imageUrl", "https://example.com/a.jpg", false},
		{"empty_string", "imageUrl", "", true},
		{"whitespace_only", "imageUrl", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_HexColor checks the caption color format rule.
*/
func TestValidator_HexColor(t *testing.T) {
	tests := []struct {
		value   string
		isValid bool
	}{
		{"#ffffff", true},
		{"#FFF", true},
		{"#1a2B3c", true},
		{"ffffff", false},
		{"#ffff", false},
		{"#gggggg", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := &validate.Validator{}
			v.HexColor("color", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_ImageURL checks accepted image reference forms.
*/
func TestValidator_ImageURL(t *testing.T) {
	tests := []struct {
		value   string
		isValid bool
	}{
		{"", true},
		{"https://dl.dropboxusercontent.com/s/abc/slide.jpg", true},
		{"http://10.0.0.2/slide.png", true},
		{"data:image/jpeg;base64,AAAA", true},
		{"/hara/world.png", true},
		{"ftp://example.com/a.jpg", false},
		{"javascript:alert(1)", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := &validate.Validator{}
			v.ImageURL("imageUrl", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_RangeStep checks numeric bounds and step alignment.
*/
func TestValidator_RangeStep(t *testing.T) {
	v := &validate.Validator{}
	assert.NoError(t, v.Range("fontWeight", 400, 100, 900).Step("fontWeight", 400, 100).Err())

	v = &validate.Validator{}
	err := v.Range("fontWeight", 950, 100, 900).Step("fontWeight", 450, 100).Err()
	require.Error(t, err)
	assert.Len(t, apperr.As(err).Details, 2)
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("imageUrl", "").                           // Fails
		Range("slideDuration", 0, 1, 60).                   // Fails
		MaxLen("caption", "too long", 3).                   // Fails
		Custom("slides", true, "Slide ids must be unique"). // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 4 errors
	assert.Len(t, ae.Details, 4)
}
