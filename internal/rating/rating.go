// Package rating derives display ratings from review scores.
//
// Ratings are a read-time projection: nothing here is persisted, and every
// fetch recomputes the average from the review rows it loaded.
package rating

import (
	"encoding/json"
	"math"
)

const (
	// Min is the lowest score a review may carry.
	Min = 1
	// Max is the highest score a review may carry.
	Max = 5
	// StarSlots is the fixed number of stars a rating renders into.
	StarSlots = 5
)

// Average is the derived rating of a listing.
// Valid is false when the listing has no reviews; that is "no rating",
// which is not the same thing as a rating of zero.
type Average struct {
	Value float64
	Valid bool
}

// None is the rating of a listing without reviews.
var None = Average{}

// Aggregate returns the arithmetic mean of ratings.
// The sum is accumulated as an integer so the result does not depend on
// the order of the input.
func Aggregate(ratings []int) Average {
	if len(ratings) == 0 {
		return None
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}

	return Average{Value: float64(sum) / float64(len(ratings)), Valid: true}
}

// InRange reports whether score is an acceptable review score.
func InRange(score int) bool {
	return score >= Min && score <= Max
}

// Ptr returns the average as a pointer, nil when there is no rating.
func (a Average) Ptr() *float64 {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

// FromPtr is the inverse of Ptr.
func FromPtr(v *float64) Average {
	if v == nil {
		return None
	}
	return Average{Value: *v, Valid: true}
}

// Stars splits the average into full and empty star counts over StarSlots.
// Full stars are the floor of the average; the remainder renders empty.
// A listing without a rating renders no stars at all.
func (a Average) Stars() (full, empty int) {
	if !a.Valid {
		return 0, 0
	}

	full = int(math.Floor(a.Value))
	full = max(0, min(full, StarSlots))
	return full, StarSlots - full
}

// MarshalJSON encodes the average as a number, or null when there is no rating.
func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON decodes a number or null.
func (a *Average) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = FromPtr(v)
	return nil
}
