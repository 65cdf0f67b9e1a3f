// FILE: trend_test.go
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		oscillator float64
		want       WeightScheme
	}{
		{85, SchemeQuadraticUp},
		{80.01, SchemeQuadraticUp},
		{80, SchemeLinearUp}, // boundary is exclusive
		{70, SchemeLinearUp},
		{60.01, SchemeLinearUp},
		{60, SchemeFlat},
		{45, SchemeFlat},
		{30.01, SchemeFlat},
		{30, SchemeLinearDown},
		{10, SchemeLinearDown},
		{0, SchemeLinearDown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyTrend(tc.oscillator), "oscillator=%v", tc.oscillator)
	}
}

func TestRangeBound(t *testing.T) {
	assert.False(t, RangeBound(30))
	assert.True(t, RangeBound(30.5))
	assert.True(t, RangeBound(50))
	assert.True(t, RangeBound(69.5))
	assert.False(t, RangeBound(70))
	assert.False(t, RangeBound(85))
	assert.False(t, RangeBound(10))
}
