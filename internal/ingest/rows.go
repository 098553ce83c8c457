package ingest

import (
	"time"
)

// RowSet holds the normalized output of one upstream record: rows grouped by
// destination table, each row in the table descriptor's column order.
type RowSet map[string][][]any

// Add appends one row for a destination table.
func (rs RowSet) Add(table string, row ...any) {
	rs[table] = append(rs[table], row)
}

// Rows returns the buffered rows for a table.
func (rs RowSet) Rows(table string) [][]any {
	return rs[table]
}

// strVal dereferences an optional string to a nullable SQL value.
func strVal(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// emptyToNull maps both nil and "" to NULL. Release-date certifications
// arrive as empty strings when unrated.
func emptyToNull(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func int64Val(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int16Val(v *int16) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatVal(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolVal(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

// timeVal parses date and datetime strings; anything unparseable becomes
// NULL rather than failing the record.
func timeVal(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", *s); err == nil {
		return t
	}
	return nil
}

// firstCountry picks the leading origin country code, the only one stored.
func firstCountry(codes []string) any {
	if len(codes) == 0 {
		return nil
	}
	return codes[0]
}
