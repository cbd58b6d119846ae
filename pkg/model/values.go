package model

import "time"

// Int64 returns the column as int64, or zero.
func Int64(row Row, column string) int64 {
	v, _ := row.Int64(column)
	return v
}

// Int returns the column as int, or zero.
func Int(row Row, column string) int {
	v, _ := row.Int64(column)
	return int(v)
}

// String returns the column as string, or "".
func String(row Row, column string) string {
	v, _ := row.String(column)
	return v
}

// Float64 returns the column as float64, or zero.
func Float64(row Row, column string) float64 {
	v, _ := row.Float64(column)
	return v
}

// Bool returns the column as bool, or false.
func Bool(row Row, column string) bool {
	v, _ := row.Bool(column)
	return v
}

// Time returns the column as time.Time, or the zero time.
func Time(row Row, column string) time.Time {
	v, _ := row.Time(column)
	return v
}

// TimePtr returns the column as *time.Time; NULL and unparsable values are nil.
func TimePtr(row Row, column string) *time.Time {
	v, ok := row.Time(column)
	if !ok {
		return nil
	}
	return &v
}

// Int64Ptr returns the column as *int64; NULL is nil.
func Int64Ptr(row Row, column string) *int64 {
	v, ok := row.Int64(column)
	if !ok {
		return nil
	}
	return &v
}

// NullInt64 maps a nil pointer to NULL when writing Attributes.
func NullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
