// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr classifies remote database errors for the slideshow stores.
//
// The coordinator never shows storage failures to the kiosk; it only needs
// to know whether the remote store answered. A missing row is an answer,
// anything else means the remote is unavailable for this operation.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrUnavailable marks every remote store failure. Test with [errors.Is].
var ErrUnavailable = errors.New("remote store unavailable")

// IsNoRows reports whether err means the queried row does not exist.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Wrap annotates a database error with the failed action and marks it as
// [ErrUnavailable]. Nil stays nil.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("postgres: %s: %w: %w", action, ErrUnavailable, err)
}
