package robot

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/open-teleop/swerve/pkg/swerve"
)

func TestApplyDeadband(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"inside", 0.05, 0},
		{"edge", 0.1, 0},
		{"negative inside", -0.1, 0},
		{"full", 1, 1},
		{"full reverse", -1, -1},
		{"half", 0.55, 0.5},
		{"half reverse", -0.55, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ApplyDeadband(tt.value, 0.1), 1e-12)
		})
	}
}

func TestTeleopMapper(t *testing.T) {
	m := TeleopMapper{Deadband: 0.1, Scale: 0.5, MaxSpeed: 4, MaxAngularVelocity: 10}

	got := m.Map(Intent{Translation: 1, Strafe: -0.55, Rotation: 0.05})
	assert.InDelta(t, 2.0, got.Vx, 1e-12)
	assert.InDelta(t, -1.0, got.Vy, 1e-12)
	assert.Equal(t, 0.0, got.Omega)
	assert.True(t, got.FieldRelative)
	assert.True(t, got.OpenLoop)

	assert.Equal(t, swerve.ChassisMotionRequest{FieldRelative: true, OpenLoop: true}, m.Map(Intent{}))

	got = m.Map(Intent{Rotation: -1, RobotCentric: true})
	assert.InDelta(t, -5.0, got.Omega, 1e-12)
	assert.False(t, got.FieldRelative)
	assert.True(t, got.OpenLoop)

	// Out-of-range and NaN axes are clamped and zeroed.
	got = m.Map(Intent{Translation: 3, Strafe: math.NaN()})
	assert.Equal(t, 2.0, got.Vx)
	assert.Equal(t, 0.0, got.Vy)
}

func TestIntentMailbox(t *testing.T) {
	box := NewIntentMailbox()
	in, at := box.Latest()
	assert.Equal(t, Intent{}, in)
	assert.True(t, at.IsZero())

	now := time.Unix(5, 0)
	box.Set(Intent{Translation: 0.3}, now)
	in, at = box.Latest()
	assert.Equal(t, 0.3, in.Translation)
	assert.Equal(t, now, at)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Teleop ")
	assert.NoError(t, err)
	assert.Equal(t, ModeTeleop, m)

	m, err = ParseMode("disabled")
	assert.NoError(t, err)
	assert.Equal(t, "disabled", m.String())

	_, err = ParseMode("auto")
	assert.ErrorIs(t, err, ErrUnknownMode)

	text, _ := ModeTeleop.MarshalText()
	assert.Equal(t, "teleop", string(text))
}
