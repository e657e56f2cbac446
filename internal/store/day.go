package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// DaysByTrip returns all days of a trip ordered by date ascending.
// This ordering is load-bearing: day_index and "next upcoming event"
// searches both assume it.
func (s *Store) DaysByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.TripDay, error) {
	const q = `
		SELECT id, trip_id, date, park, day_index
		FROM trip_days
		WHERE trip_id = @trip_id
		ORDER BY date`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, classify("store.DaysByTrip", err)
	}
	defer rows.Close()

	var days []domain.TripDay
	for rows.Next() {
		var d domain.TripDay
		if err := rows.Scan(&d.ID, &d.TripID, &d.Date, &d.Park, &d.DayIndex); err != nil {
			return nil, classify("store.DaysByTrip: scan", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.DaysByTrip: rows", err)
	}
	return days, nil
}

// CreateDay inserts a day and returns the persisted row.
func (s *Store) CreateDay(ctx context.Context, tripID uuid.UUID, date time.Time, park *string, dayIndex int) (domain.TripDay, error) {
	const q = `
		INSERT INTO trip_days (trip_id, date, park, day_index)
		VALUES (@trip_id, @date, @park, @day_index)
		RETURNING id, trip_id, date, park, day_index`

	args := pgx.NamedArgs{
		"trip_id":   tripID,
		"date":      date,
		"park":      park,
		"day_index": dayIndex,
	}

	var d domain.TripDay
	row := s.db.QueryRow(ctx, q, args)
	if err := row.Scan(&d.ID, &d.TripID, &d.Date, &d.Park, &d.DayIndex); err != nil {
		return domain.TripDay{}, classify("store.CreateDay", err)
	}
	return d, nil
}
