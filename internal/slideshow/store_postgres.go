// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
PostgreSQL implementation of the remote slideshow store.

Field names are translated at this boundary: in memory the slideshow uses
camelCase semantics (slideDuration), storage uses the snake_case columns
declared in the schema package (slide_duration).

The image slide list is rewritten as a whole: every image row is deleted
and the list re-inserted inside one transaction, with sort_order taken from
the array position. The collection is small and edits come from one kiosk,
so no diffing is attempted.
*/
package slideshow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/hara/internal/platform/database/schema"
	"github.com/taibuivan/hara/internal/platform/dberr"
	"github.com/taibuivan/hara/pkg/uuid"
)

// # PostgreSQL Repository

// PostgresRepository implements [RemoteStore] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed remote store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Settings

/*
GetSettings reads the singleton settings row.

Returns:
  - Settings: persisted fields; EditMode is always false
  - bool: false when the table is empty
*/
func (repository *PostgresRepository) GetSettings(context context.Context) (Settings, bool, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s ORDER BY %s DESC LIMIT 1`,
		schema.HaraSettings.ID,
		schema.HaraSettings.SlideDuration,
		schema.HaraSettings.AutoPlay,
		schema.HaraSettings.TransitionDuration,
		schema.HaraSettings.Table,
		schema.HaraSettings.UpdatedAt,
	)

	var settings Settings
	err := repository.pool.QueryRow(context, query).Scan(
		&settings.ID,
		&settings.SlideDuration,
		&settings.AutoPlay,
		&settings.TransitionDuration,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return Settings{}, false, nil
		}
		return Settings{}, false, dberr.Wrap(err, "get settings")
	}

	return settings, true, nil
}

// UpsertSettings writes the persisted settings fields keyed by settings.ID.
func (repository *PostgresRepository) UpsertSettings(context context.Context, settings Settings) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s, %[6]s)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (%[2]s) DO UPDATE SET
			%[3]s = EXCLUDED.%[3]s,
			%[4]s = EXCLUDED.%[4]s,
			%[5]s = EXCLUDED.%[5]s,
			%[6]s = EXCLUDED.%[6]s`,
		schema.HaraSettings.Table,
		schema.HaraSettings.ID,
		schema.HaraSettings.SlideDuration,
		schema.HaraSettings.AutoPlay,
		schema.HaraSettings.TransitionDuration,
		schema.HaraSettings.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		settings.ID,
		settings.SlideDuration,
		settings.AutoPlay,
		settings.TransitionDuration,
	)
	return dberr.Wrap(err, "upsert settings")
}

// # Image Slides

// ListImageSlides returns rows of slide_type 'image' ordered by sort_order.
func (repository *PostgresRepository) ListImageSlides(context context.Context) ([]ImageSlide, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(%s, ''), %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC`,
		schema.HaraSlides.ID,
		schema.HaraSlides.ImageURL,
		schema.HaraSlides.Caption,
		schema.HaraSlides.CaptionStyle,
		schema.HaraSlides.SortOrder,
		schema.HaraSlides.Table,
		schema.HaraSlides.SlideType,
		schema.HaraSlides.SortOrder,
	)

	rows, err := repository.pool.Query(context, query, schema.SlideTypeImage)
	if err != nil {
		return nil, dberr.Wrap(err, "list image slides")
	}
	defer rows.Close()

	slides := []ImageSlide{}
	for rows.Next() {
		var (
			slide    ImageSlide
			rawStyle []byte
		)
		if err := rows.Scan(&slide.ID, &slide.ImageURL, &slide.Caption, &rawStyle, &slide.SortOrder); err != nil {
			return nil, dberr.Wrap(err, "scan image slide")
		}

		if len(rawStyle) > 0 && string(rawStyle) != "null" {
			var style CaptionStyle
			if err := json.Unmarshal(rawStyle, &style); err != nil {
				return nil, dberr.Wrap(err, fmt.Sprintf("decode caption style of %s", slide.ID))
			}
			slide.CaptionStyle = &style
		}

		slides = append(slides, slide)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "iterate image slides")
	}

	return slides, nil
}

/*
ReplaceImageSlides rewrites the whole image slide collection.

Description: Deletes every 'image' row, then batch inserts slides with
sort_order equal to the array index, atomically.
*/
func (repository *PostgresRepository) ReplaceImageSlides(context context.Context, slides []ImageSlide) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin replace image slides")
	}
	defer func() { _ = transaction.Rollback(context) }()

	// Record Deletion Phase
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.HaraSlides.Table, schema.HaraSlides.SlideType)
	if _, err := transaction.Exec(context, deleteQuery, schema.SlideTypeImage); err != nil {
		return dberr.Wrap(err, "clear image slides")
	}

	// Batch Insert Phase
	if len(slides) > 0 {
		insertQuery := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6)`,
			schema.HaraSlides.Table,
			schema.HaraSlides.ID,
			schema.HaraSlides.SlideType,
			schema.HaraSlides.ImageURL,
			schema.HaraSlides.Caption,
			schema.HaraSlides.CaptionStyle,
			schema.HaraSlides.SortOrder,
		)

		batch := &pgx.Batch{}
		for position, slide := range slides {
			style, err := encodeCaptionStyle(slide.CaptionStyle)
			if err != nil {
				return dberr.Wrap(err, "encode caption style")
			}
			batch.Queue(insertQuery, slide.ID, schema.SlideTypeImage, slide.ImageURL, slide.Caption, style, position)
		}

		if err := transaction.SendBatch(context, batch).Close(); err != nil {
			return dberr.Wrap(err, "insert image slides")
		}
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit image slides")
	}
	return nil
}

// encodeCaptionStyle returns the JSONB parameter for style, nil for SQL NULL.
func encodeCaptionStyle(style *CaptionStyle) (any, error) {
	if style == nil {
		return nil, nil
	}
	raw, err := json.Marshal(style)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// # Singleton Images

func (repository *PostgresRepository) GetStatusImage(context context.Context) (string, bool, error) {
	return repository.getImage(context, schema.HaraStatusImage)
}

func (repository *PostgresRepository) SaveStatusImage(context context.Context, url string) error {
	return repository.saveImage(context, schema.HaraStatusImage, url)
}

func (repository *PostgresRepository) GetMapBackground(context context.Context) (string, bool, error) {
	return repository.getImage(context, schema.HaraMapBackground)
}

func (repository *PostgresRepository) SaveMapBackground(context context.Context, url string) error {
	return repository.saveImage(context, schema.HaraMapBackground, url)
}

// getImage reads the oldest row of a single-image table. An empty URL
// counts as absent.
func (repository *PostgresRepository) getImage(context context.Context, table schema.HaraImageTable) (string, bool, error) {
	query := fmt.Sprintf(`SELECT COALESCE(%s, '') FROM %s ORDER BY %s ASC LIMIT 1`,
		table.ImageURL, table.Table, table.CreatedAt)

	var url string
	if err := repository.pool.QueryRow(context, query).Scan(&url); err != nil {
		if dberr.IsNoRows(err) {
			return "", false, nil
		}
		return "", false, dberr.Wrap(err, "get "+table.Table)
	}

	return url, url != "", nil
}

// saveImage updates the existing row of a single-image table, or inserts
// the first one.
func (repository *PostgresRepository) saveImage(context context.Context, table schema.HaraImageTable, url string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin save "+table.Table)
	}
	defer func() { _ = transaction.Rollback(context) }()

	updateQuery := fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s = $1, %[3]s = now()
		WHERE %[4]s = (SELECT %[4]s FROM %[1]s ORDER BY %[5]s ASC LIMIT 1)`,
		table.Table, table.ImageURL, table.UpdatedAt, table.ID, table.CreatedAt)

	tag, err := transaction.Exec(context, updateQuery, url)
	if err != nil {
		return dberr.Wrap(err, "update "+table.Table)
	}

	if tag.RowsAffected() == 0 {
		insertQuery := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`, table.Table, table.ID, table.ImageURL)
		if _, err := transaction.Exec(context, insertQuery, uuid.New(), url); err != nil {
			return dberr.Wrap(err, "insert "+table.Table)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit "+table.Table)
	}
	return nil
}
