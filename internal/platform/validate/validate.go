// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// The slideshow coordinator validates every edit with it before touching
// its snapshot, so a rejected edit leaves nothing half applied.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/hara/internal/platform/apperr"
)

var (
	// hexColorRegex matches #rgb and #rrggbb.
	hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// imageURLPrefixes lists the schemes an image reference may use.
var imageURLPrefixes = []string{"https://", "http://", "data:image/", "/"}

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// Step fails if value is not a multiple of step.
func (v *Validator) Step(field string, value, step int) *Validator {
	if step > 0 && value%step != 0 {
		v.add(field, fmt.Sprintf("Must be a multiple of %d", step))
	}
	return v
}

// HexColor fails if the value is not a #rgb or #rrggbb color.
func (v *Validator) HexColor(field, value string) *Validator {
	if !hexColorRegex.MatchString(value) {
		v.add(field, "Must be a hex color (#rgb or #rrggbb)")
	}
	return v
}

// ImageURL fails if a non-empty value is not an http(s) URL, an image
// data URL, or a root-relative path. Empty values pass; combine with
// Required when the image is mandatory.
func (v *Validator) ImageURL(field, value string) *Validator {
	if value == "" {
		return v
	}
	for _, prefix := range imageURLPrefixes {
		if strings.HasPrefix(value, prefix) {
			return v
		}
	}
	v.add(field, "Must be an http(s) URL, an image data URL, or a root-relative path")
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom("slides", hasDuplicates, "Slide ids must be unique")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method; call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}
