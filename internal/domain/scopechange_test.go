package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeChangeEvent_Impact(t *testing.T) {
	cases := []struct {
		delta float64
		want  ImpactLevel
	}{
		{delta: 40, want: ImpactHigh},
		{delta: -45, want: ImpactHigh},
		{delta: 8, want: ImpactMedium},
		{delta: -12, want: ImpactMedium},
		{delta: 7.9, want: ImpactLow},
		{delta: 0, want: ImpactLow},
	}
	for _, tc := range cases {
		e := ScopeChangeEvent{HoursDelta: tc.delta}
		assert.Equal(t, tc.want, e.Impact(), "delta %v", tc.delta)
	}
}

func TestScopeChangeEvent_Direction(t *testing.T) {
	up := ScopeChangeEvent{HoursDelta: 4}
	assert.True(t, up.IsIncrease())
	assert.False(t, up.IsDecrease())

	down := ScopeChangeEvent{HoursDelta: -4}
	assert.True(t, down.IsDecrease())
	assert.False(t, down.IsIncrease())
}
