package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentOverlaps(t *testing.T) {
	// Route A(1) B(2) C(3) D(4); existing booking A->C.
	booked := Segment{Board: 1, Alight: 3}

	tests := []struct {
		name      string
		candidate Segment
		want      bool
	}{
		{"B to D crosses the booked range", Segment{2, 4}, true},
		{"C to D relays at the boundary", Segment{3, 4}, false},
		{"same segment", Segment{1, 3}, true},
		{"inside the booked range", Segment{1, 2}, true},
		{"covers the booked range", Segment{1, 4}, true},
		{"B to C inside", Segment{2, 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.candidate.Overlaps(booked))
			assert.Equal(t, tt.want, booked.Overlaps(tt.candidate), "overlap must be symmetric")
		})
	}
}

func TestNewSegmentRejectsBackwards(t *testing.T) {
	for _, s := range []Segment{{3, 1}, {2, 2}, {0, 2}} {
		_, err := NewSegment(s.Board, s.Alight)
		require.Error(t, err, s.String())
		assert.True(t, errors.Is(err, ErrInvalidSegment))
		assert.Equal(t, "invalid_segment", Code(err))
	}

	s, err := NewSegment(1, 4)
	require.NoError(t, err)
	assert.Equal(t, Segment{1, 4}, s)
}

func TestFirstConflict(t *testing.T) {
	taken := []Segment{{1, 2}, {3, 4}}

	_, found := FirstConflict(Segment{2, 3}, taken)
	assert.False(t, found, "2->3 fits between two relay bookings")

	got, found := FirstConflict(Segment{1, 4}, taken)
	assert.True(t, found)
	assert.Equal(t, Segment{1, 2}, got)
}
