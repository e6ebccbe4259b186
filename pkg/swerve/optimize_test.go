package swerve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/open-teleop/swerve/pkg/geometry"
)

func TestOptimize(t *testing.T) {
	tests := []struct {
		name        string
		current     float64
		desired     float64
		speed       float64
		wantHeading float64
		wantSpeed   float64
	}{
		{"short way through 180", 170, -170, 2.0, 190, 2.0},
		{"flip past 90", 0, 170, 2.0, -10, -2.0},
		{"exactly 90 keeps direction", 0, 90, 1.0, 90, 1.0},
		{"exactly 180 flips in place", 0, 180, 1.0, 0, -1.0},
		{"continuous past one turn", 720, 10, 1.0, 730, 1.0},
		{"negative side", -170, 170, 1.0, -190, 1.0},
		{"flip negative delta", 45, -100, 3.0, 80, -3.0},
		{"zero speed still optimizes", 0, 135, 0, -45, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Optimize(
				WheelCommand{SpeedMetersPerSec: tt.speed, Heading: geometry.FromDegrees(tt.desired)},
				geometry.FromDegrees(tt.current),
			)
			assert.InDelta(t, tt.wantHeading, got.Heading.Degrees(), 1e-9)
			assert.InDelta(t, tt.wantSpeed, got.SpeedMetersPerSec, 1e-12)
		})
	}
}

func TestOptimizeNeverTurnsMoreThan90(t *testing.T) {
	for current := -720.0; current <= 720.0; current += 7.0 {
		for desired := -360.0; desired <= 360.0; desired += 11.0 {
			cur := geometry.FromDegrees(current)
			in := WheelCommand{SpeedMetersPerSec: 1.5, Heading: geometry.FromDegrees(desired)}
			out := Optimize(in, cur)

			turn := out.Heading.Degrees() - cur.Degrees()
			if math.Abs(turn) > 90.0+1e-9 {
				t.Fatalf("current=%v desired=%v: turned %v degrees", current, desired, turn)
			}

			flipped := math.Abs(geometry.WrapDegrees(in.Heading.Degrees()-cur.Degrees())) > 90.0
			if flipped {
				assert.Equal(t, -in.SpeedMetersPerSec, out.SpeedMetersPerSec)
			} else {
				assert.Equal(t, in.SpeedMetersPerSec, out.SpeedMetersPerSec)
			}

			// Same ground velocity either way.
			diff := geometry.WrapDegrees(out.Heading.Degrees() - desired)
			if flipped {
				assert.InDelta(t, 180.0, math.Abs(diff), 1e-6)
			} else {
				assert.InDelta(t, 0.0, diff, 1e-6)
			}
		}
	}
}

func TestFeedforward(t *testing.T) {
	ff := Feedforward{KS: 0.1, KV: 2.0, KA: 0.5}
	assert.InDelta(t, 4.1, ff.Calculate(2.0, 0), 1e-12)
	assert.InDelta(t, -4.1, ff.Calculate(-2.0, 0), 1e-12)
	assert.InDelta(t, 0.0, ff.Calculate(0, 0), 1e-12)
	assert.InDelta(t, 4.6, ff.Calculate(2.0, 1.0), 1e-12)
}
