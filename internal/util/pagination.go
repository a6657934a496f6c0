package util

import "strconv"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Window clamps limit to [1, MaxLimit] and offset to >= 0.
func Window(limit, offset int) (int, int) {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func Meta(limit, offset int, total int64) map[string]any {
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_prev": offset > 0,
		"has_next": int64(offset+limit) < total,
	}
}
