package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/shopspring/decimal"
)

// marshalNumbers encodes a day's numbers as a JSON array of decimal strings.
// Strings, not JSON numbers: the store must round-trip decimals exactly.
func marshalNumbers(numbers []decimal.Decimal) ([]byte, error) {
	strs := make([]string, len(numbers))
	for i, n := range numbers {
		strs[i] = n.String()
	}
	out, err := json.Marshal(strs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal numbers: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEntryRow scans a database row into a DayRecord, decoding the JSONB
// numbers column. Compatible with both sql.Row and sql.Rows.
func scanEntryRow(row scanner) (period.DayRecord, error) {
	var rec period.DayRecord
	var numbersJSON []byte

	if err := row.Scan(&rec.DateKey, &numbersJSON); err != nil {
		return period.DayRecord{}, fmt.Errorf("failed to scan entry row: %w", err)
	}

	var strs []string
	if err := json.Unmarshal(numbersJSON, &strs); err != nil {
		return period.DayRecord{}, fmt.Errorf("failed to unmarshal numbers for %s: %w", rec.DateKey, err)
	}

	rec.Numbers = make([]decimal.Decimal, 0, len(strs))
	for _, s := range strs {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return period.DayRecord{}, fmt.Errorf("invalid stored number %q for %s: %w", s, rec.DateKey, err)
		}
		rec.Numbers = append(rec.Numbers, d)
	}
	return rec, nil
}
