// Package history persists the booking ledger in SQLite so rides
// survive process restarts and can be exported for analysis.
package history

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/citydispatch/ridesim/core/model"
)

// Record is one booked ride. ReleasedAt is zero while the vehicle is
// still on trip.
type Record struct {
	BookingID   string    `json:"booking_id"`
	VehicleID   string    `json:"vehicle_id"`
	VehicleType string    `json:"vehicle_type"`
	Price       float64   `json:"price"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	ReleasedAt  time.Time `json:"released_at"`
}

// SQLiteStore persists ride records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS rides (
        booking_id TEXT PRIMARY KEY,
        vehicle_id TEXT,
        vehicle_type TEXT,
        price REAL,
        confirmed_at INTEGER,
        released_at INTEGER
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// RecordBooking inserts a confirmed booking. Re-inserting the same
// booking id overwrites the previous row.
func (s *SQLiteStore) RecordBooking(b model.Booking) error {
	_, err := s.db.Exec(`INSERT INTO rides
        (booking_id, vehicle_id, vehicle_type, price, confirmed_at, released_at)
        VALUES (?, ?, ?, ?, ?, 0)
        ON CONFLICT(booking_id) DO UPDATE SET
            vehicle_id = excluded.vehicle_id,
            vehicle_type = excluded.vehicle_type,
            price = excluded.price,
            confirmed_at = excluded.confirmed_at`,
		b.ID, b.VehicleID, b.VehicleType, b.Price, b.ConfirmedAt.UnixMilli())
	return err
}

// RecordRelease marks the booking as completed at the given time.
func (s *SQLiteStore) RecordRelease(bookingID string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE rides SET released_at = ? WHERE booking_id = ?`,
		at.UnixMilli(), bookingID)
	return err
}

// Query returns rides confirmed in [start,end], oldest first. An empty
// vehicleID matches every vehicle.
func (s *SQLiteStore) Query(vehicleID string, start, end time.Time) ([]Record, error) {
	q := `SELECT booking_id, vehicle_id, vehicle_type, price, confirmed_at, released_at
        FROM rides WHERE confirmed_at >= ? AND confirmed_at <= ?`
	args := []any{start.UnixMilli(), end.UnixMilli()}
	if vehicleID != "" {
		q += ` AND vehicle_id = ?`
		args = append(args, vehicleID)
	}
	q += ` ORDER BY confirmed_at`
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var r Record
		var conf, rel int64
		if err := rows.Scan(&r.BookingID, &r.VehicleID, &r.VehicleType, &r.Price, &conf, &rel); err != nil {
			return nil, err
		}
		r.ConfirmedAt = time.UnixMilli(conf).UTC()
		if rel != 0 {
			r.ReleasedAt = time.UnixMilli(rel).UTC()
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
