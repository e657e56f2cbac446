package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// BlocksByDayIDs returns all time blocks for a set of day ids in one query,
// ordered by start_time. An empty id set returns an empty slice without
// touching the database — hydrate always calls in batch, never per row.
func (s *Store) BlocksByDayIDs(ctx context.Context, dayIDs []uuid.UUID) ([]domain.TimeBlock, error) {
	if len(dayIDs) == 0 {
		return []domain.TimeBlock{}, nil
	}

	const q = `
		SELECT id, day_id, type, title, start_time, end_time, location, park, notes, created_by
		FROM time_blocks
		WHERE day_id = ANY(@day_ids)
		ORDER BY start_time`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"day_ids": dayIDs})
	if err != nil {
		return nil, classify("store.BlocksByDayIDs", err)
	}
	defer rows.Close()

	var blocks []domain.TimeBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, classify("store.BlocksByDayIDs: scan", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.BlocksByDayIDs: rows", err)
	}
	return blocks, nil
}

// CreateBlock inserts a time block and returns the persisted row.
func (s *Store) CreateBlock(ctx context.Context, b domain.TimeBlock) (domain.TimeBlock, error) {
	const q = `
		INSERT INTO time_blocks (day_id, type, title, start_time, end_time, location, park, notes, created_by)
		VALUES (@day_id, @type, @title, @start_time, @end_time, @location, @park, @notes, @created_by)
		RETURNING id, day_id, type, title, start_time, end_time, location, park, notes, created_by`

	row := s.db.QueryRow(ctx, q, blockArgs(b))
	created, err := scanBlock(row)
	if err != nil {
		return domain.TimeBlock{}, classify("store.CreateBlock", err)
	}
	return created, nil
}

// UpdateBlock overwrites the mutable fields of a block.
func (s *Store) UpdateBlock(ctx context.Context, b domain.TimeBlock) (domain.TimeBlock, error) {
	const q = `
		UPDATE time_blocks
		SET type       = @type,
		    title      = @title,
		    start_time = @start_time,
		    end_time   = @end_time,
		    location   = @location,
		    park       = @park,
		    notes      = @notes
		WHERE id = @id
		RETURNING id, day_id, type, title, start_time, end_time, location, park, notes, created_by`

	args := blockArgs(b)
	args["id"] = b.ID

	row := s.db.QueryRow(ctx, q, args)
	updated, err := scanBlock(row)
	if err != nil {
		return domain.TimeBlock{}, classify("store.UpdateBlock", err)
	}
	return updated, nil
}

// DeleteBlock removes a block by primary key.
func (s *Store) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM time_blocks WHERE id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return classify("store.DeleteBlock", err)
	}
	if tag.RowsAffected() == 0 {
		return classify("store.DeleteBlock", pgx.ErrNoRows)
	}
	return nil
}

func blockArgs(b domain.TimeBlock) pgx.NamedArgs {
	return pgx.NamedArgs{
		"day_id":     b.DayID,
		"type":       b.Type,
		"title":      b.Title,
		"start_time": b.StartTime,
		"end_time":   b.EndTime,
		"location":   b.Location,
		"park":       b.Park,
		"notes":      b.Notes,
		"created_by": b.CreatedBy,
	}
}

func scanBlock(s scanner) (domain.TimeBlock, error) {
	var b domain.TimeBlock
	err := s.Scan(&b.ID, &b.DayID, &b.Type, &b.Title, &b.StartTime, &b.EndTime,
		&b.Location, &b.Park, &b.Notes, &b.CreatedBy)
	if err != nil {
		return domain.TimeBlock{}, err
	}
	return b, nil
}
