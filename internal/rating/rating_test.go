package rating

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)
	assert.False(t, got.Valid)
	assert.Nil(t, got.Ptr())

	got = Aggregate([]int{})
	assert.Equal(t, None, got)
}

func TestAggregate_Mean(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"single", []int{5}, 5},
		{"three to five", []int{3, 4, 5}, 4},
		{"non integer", []int{1, 2}, 1.5},
		{"all ones", []int{1, 1, 1, 1}, 1},
		{"mixed", []int{5, 4, 4, 2}, 3.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.ratings)
			require.True(t, got.Valid)
			assert.InDelta(t, tt.want, got.Value, 1e-9)
		})
	}
}

func TestAggregate_WithinScoreRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		n := 1 + rng.IntN(30)
		ratings := make([]int, n)
		for i := range ratings {
			ratings[i] = Min + rng.IntN(Max)
		}

		got := Aggregate(ratings)
		require.True(t, got.Valid)
		assert.GreaterOrEqual(t, got.Value, float64(Min))
		assert.LessOrEqual(t, got.Value, float64(Max))
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	ratings := []int{1, 5, 3, 3, 2, 4, 5, 1, 2}
	want := Aggregate(ratings)

	for range 50 {
		shuffled := append([]int(nil), ratings...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.Equal(t, want, Aggregate(shuffled))
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		avg       Average
		wantFull  int
		wantEmpty int
	}{
		{Aggregate([]int{3, 4, 5}), 4, 1},
		{Aggregate([]int{5}), 5, 0},
		{Aggregate([]int{1, 2}), 1, 4},
		{Aggregate([]int{4, 5}), 4, 1},
		{None, 0, 0},
	}

	for _, tt := range tests {
		full, empty := tt.avg.Stars()
		assert.Equal(t, tt.wantFull, full)
		assert.Equal(t, tt.wantEmpty, empty)
	}
}

func TestInRange(t *testing.T) {
	assert.False(t, InRange(0))
	assert.True(t, InRange(1))
	assert.True(t, InRange(5))
	assert.False(t, InRange(6))
}

func TestAverage_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Rating Average `json:"rating"`
	}{Aggregate([]int{3, 4, 5})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating":4}`, string(out))

	out, err = json.Marshal(struct {
		Rating Average `json:"rating"`
	}{None})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating":null}`, string(out))

	var decoded struct {
		Rating Average `json:"rating"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rating":2.5}`), &decoded))
	assert.Equal(t, Average{Value: 2.5, Valid: true}, decoded.Rating)

	require.NoError(t, json.Unmarshal([]byte(`{"rating":null}`), &decoded))
	assert.False(t, decoded.Rating.Valid)
}
