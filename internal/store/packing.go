package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wellsfam/tripsync/internal/domain"
)

// PackingBaseByTrip returns the shared packing list for a trip.
func (s *Store) PackingBaseByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PackingBaseItem, error) {
	const q = `
		SELECT id, trip_id, item, added_by
		FROM packing_base_items
		WHERE trip_id = @trip_id
		ORDER BY id`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, classify("store.PackingBaseByTrip", err)
	}
	defer rows.Close()

	var items []domain.PackingBaseItem
	for rows.Next() {
		var p domain.PackingBaseItem
		if err := rows.Scan(&p.ID, &p.TripID, &p.Item, &p.AddedBy); err != nil {
			return nil, classify("store.PackingBaseByTrip: scan", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.PackingBaseByTrip: rows", err)
	}
	return items, nil
}

// PackingChecksByItemIDs returns check rows for a set of base item ids.
// Row policy may return only the caller's rows; that is not an error.
func (s *Store) PackingChecksByItemIDs(ctx context.Context, itemIDs []uuid.UUID) ([]domain.PackingCheck, error) {
	if len(itemIDs) == 0 {
		return []domain.PackingCheck{}, nil
	}

	const q = `
		SELECT id, base_item_id, user_id, packed
		FROM packing_checks
		WHERE base_item_id = ANY(@item_ids)`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"item_ids": itemIDs})
	if err != nil {
		return nil, classify("store.PackingChecksByItemIDs", err)
	}
	defer rows.Close()

	var checks []domain.PackingCheck
	for rows.Next() {
		var c domain.PackingCheck
		if err := rows.Scan(&c.ID, &c.BaseItemID, &c.UserID, &c.Packed); err != nil {
			return nil, classify("store.PackingChecksByItemIDs: scan", err)
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.PackingChecksByItemIDs: rows", err)
	}
	return checks, nil
}

// CreatePackingBase adds an item to the shared packing list.
func (s *Store) CreatePackingBase(ctx context.Context, tripID uuid.UUID, item string, addedBy uuid.UUID) (domain.PackingBaseItem, error) {
	const q = `
		INSERT INTO packing_base_items (trip_id, item, added_by)
		VALUES (@trip_id, @item, @added_by)
		RETURNING id, trip_id, item, added_by`

	args := pgx.NamedArgs{"trip_id": tripID, "item": item, "added_by": addedBy}

	var p domain.PackingBaseItem
	row := s.db.QueryRow(ctx, q, args)
	if err := row.Scan(&p.ID, &p.TripID, &p.Item, &p.AddedBy); err != nil {
		return domain.PackingBaseItem{}, classify("store.CreatePackingBase", err)
	}
	return p, nil
}

// DeletePackingBase removes a shared item; check rows cascade.
func (s *Store) DeletePackingBase(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM packing_base_items WHERE id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return classify("store.DeletePackingBase", err)
	}
	if tag.RowsAffected() == 0 {
		return classify("store.DeletePackingBase", pgx.ErrNoRows)
	}
	return nil
}

// UpsertPackingCheck sets the caller's packed state for a shared item,
// keyed by (base_item_id, user_id).
func (s *Store) UpsertPackingCheck(ctx context.Context, baseItemID, userID uuid.UUID, packed bool) (domain.PackingCheck, error) {
	const q = `
		INSERT INTO packing_checks (base_item_id, user_id, packed)
		VALUES (@base_item_id, @user_id, @packed)
		ON CONFLICT (base_item_id, user_id)
		DO UPDATE SET packed = EXCLUDED.packed
		RETURNING id, base_item_id, user_id, packed`

	args := pgx.NamedArgs{"base_item_id": baseItemID, "user_id": userID, "packed": packed}

	var c domain.PackingCheck
	row := s.db.QueryRow(ctx, q, args)
	if err := row.Scan(&c.ID, &c.BaseItemID, &c.UserID, &c.Packed); err != nil {
		return domain.PackingCheck{}, classify("store.UpsertPackingCheck", err)
	}
	return c, nil
}

// PersonalItemsByTrip returns the caller's private packing items. Row
// policy guarantees only the caller's rows come back.
func (s *Store) PersonalItemsByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PersonalPackingItem, error) {
	const q = `
		SELECT id, trip_id, user_id, item, packed
		FROM personal_packing_items
		WHERE trip_id = @trip_id
		ORDER BY id`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, classify("store.PersonalItemsByTrip", err)
	}
	defer rows.Close()

	var items []domain.PersonalPackingItem
	for rows.Next() {
		var p domain.PersonalPackingItem
		if err := rows.Scan(&p.ID, &p.TripID, &p.UserID, &p.Item, &p.Packed); err != nil {
			return nil, classify("store.PersonalItemsByTrip: scan", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("store.PersonalItemsByTrip: rows", err)
	}
	return items, nil
}

// CreatePersonalItem adds a private packing item for the caller.
func (s *Store) CreatePersonalItem(ctx context.Context, tripID, userID uuid.UUID, item string) (domain.PersonalPackingItem, error) {
	const q = `
		INSERT INTO personal_packing_items (trip_id, user_id, item)
		VALUES (@trip_id, @user_id, @item)
		RETURNING id, trip_id, user_id, item, packed`

	args := pgx.NamedArgs{"trip_id": tripID, "user_id": userID, "item": item}

	var p domain.PersonalPackingItem
	row := s.db.QueryRow(ctx, q, args)
	if err := row.Scan(&p.ID, &p.TripID, &p.UserID, &p.Item, &p.Packed); err != nil {
		return domain.PersonalPackingItem{}, classify("store.CreatePersonalItem", err)
	}
	return p, nil
}

// SetPersonalItemPacked toggles a private item's packed flag.
func (s *Store) SetPersonalItemPacked(ctx context.Context, id uuid.UUID, packed bool) error {
	const q = `UPDATE personal_packing_items SET packed = @packed WHERE id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "packed": packed})
	if err != nil {
		return classify("store.SetPersonalItemPacked", err)
	}
	if tag.RowsAffected() == 0 {
		return classify("store.SetPersonalItemPacked", pgx.ErrNoRows)
	}
	return nil
}

// DeletePersonalItem removes a private item by primary key.
func (s *Store) DeletePersonalItem(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM personal_packing_items WHERE id = @id`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return classify("store.DeletePersonalItem", err)
	}
	if tag.RowsAffected() == 0 {
		return classify("store.DeletePersonalItem", pgx.ErrNoRows)
	}
	return nil
}
