package domain

import "fmt"

// Segment is the part of a route one passenger occupies a seat for, as a
// half-open range of stop orders [Board, Alight).
type Segment struct {
	Board  int `json:"board"`
	Alight int `json:"alight"`
}

// NewSegment rejects segments that do not move forward along the route.
func NewSegment(board, alight int) (Segment, error) {
	s := Segment{Board: board, Alight: alight}
	if err := s.Validate(); err != nil {
		return Segment{}, err
	}
	return s, nil
}

func (s Segment) Validate() error {
	if s.Board < 1 || s.Board >= s.Alight {
		return Reject(ErrInvalidSegment, "board order %d, alight order %d", s.Board, s.Alight)
	}
	return nil
}

// Overlaps reports whether two segments on the same seat conflict. Touching
// endpoints do not: alighting at X while the next passenger boards at X is a
// legal relay.
func (s Segment) Overlaps(o Segment) bool {
	return s.Board < o.Alight && s.Alight > o.Board
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d,%d)", s.Board, s.Alight)
}

// FirstConflict returns the first segment in taken that overlaps candidate.
func FirstConflict(candidate Segment, taken []Segment) (Segment, bool) {
	for _, t := range taken {
		if candidate.Overlaps(t) {
			return t, true
		}
	}
	return Segment{}, false
}
