package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		limit, offset       int
		wantLimit, wantOffs int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: DefaultLimit, wantOffs: 0},
		{name: "clamped", limit: 500, offset: 20, wantLimit: MaxLimit, wantOffs: 20},
		{name: "negative offset", limit: 5, offset: -3, wantLimit: 5, wantOffs: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, o := Window(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, l)
			assert.Equal(t, tt.wantOffs, o)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 12, ParseIntDefault("12", 7))
}

func TestMeta(t *testing.T) {
	t.Parallel()

	m := Meta(10, 0, 25)
	assert.Equal(t, true, m["has_next"])
	assert.Equal(t, false, m["has_prev"])

	m = Meta(10, 20, 25)
	assert.Equal(t, false, m["has_next"])
	assert.Equal(t, true, m["has_prev"])
}
