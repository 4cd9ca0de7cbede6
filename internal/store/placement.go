package store

import "database/sql"

// Placement records a fretted position seen during a session, timestamped
// relative to the session start.
type Placement struct {
	ID        int64
	SessionID string
	TMs       int64
	StringIdx int
	Fret      int
	Note      string
}

// PlacementRepository provides operations for session placements.
type PlacementRepository struct {
	db *sql.DB
}

// Placements returns the placement repository for this store.
func (s *Store) Placements() *PlacementRepository {
	return &PlacementRepository{db: s.db}
}

// CreateBatch inserts a batch of placements in a single transaction.
func (r *PlacementRepository) CreateBatch(placements []*Placement) error {
	if len(placements) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO placements (session_id, t_ms, string_idx, fret, note)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range placements {
		result, err := stmt.Exec(p.SessionID, p.TMs, p.StringIdx, p.Fret, p.Note)
		if err != nil {
			return err
		}
		if id, err := result.LastInsertId(); err == nil {
			p.ID = id
		}
	}

	return tx.Commit()
}

// ListBySession retrieves all placements for a session in time order.
func (r *PlacementRepository) ListBySession(sessionID string) ([]*Placement, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, t_ms, string_idx, fret, note
		 FROM placements WHERE session_id = ? ORDER BY t_ms`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var placements []*Placement
	for rows.Next() {
		p := &Placement{}
		if err := rows.Scan(&p.ID, &p.SessionID, &p.TMs, &p.StringIdx, &p.Fret, &p.Note); err != nil {
			return nil, err
		}
		placements = append(placements, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return placements, nil
}
