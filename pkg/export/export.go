// Package export renders ride ledger records for external tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/citydispatch/ridesim/infra/history"
)

// WriteJSON writes the ride records to w in JSON format.
func WriteJSON(w io.Writer, records []history.Record) error {
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

// WriteCSV writes the ride records to w with a header row. An
// in-progress ride has an empty released_at column.
func WriteCSV(w io.Writer, records []history.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"booking_id", "vehicle_id", "vehicle_type", "price", "confirmed_at", "released_at"}); err != nil {
		return err
	}
	for _, r := range records {
		released := ""
		if !r.ReleasedAt.IsZero() {
			released = r.ReleasedAt.Format(time.RFC3339)
		}
		rec := []string{
			r.BookingID,
			r.VehicleID,
			r.VehicleType,
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			r.ConfirmedAt.Format(time.RFC3339),
			released,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
