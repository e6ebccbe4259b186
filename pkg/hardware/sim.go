package hardware

import (
	"errors"
	"math"
	"sync"
)

// ErrSimulatedFault is returned by simulated devices with a fault injected.
var ErrSimulatedFault = errors.New("simulated device fault")

const nominalBatteryVolts = 12.0

var (
	_ ModuleIO      = (*SimModule)(nil)
	_ GyroIO        = (*SimGyro)(nil)
	_ OmegaObserver = (*SimGyro)(nil)
)

// SimModule is an ideal swerve module. The drive reaches its setpoint within
// one period and the turn motor follows its position target exactly.
type SimModule struct {
	mu sync.Mutex

	maxSpeed    float64
	offset      float64
	dt          float64
	physicalDeg float64 // wheel angle relative to the chassis
	encoderBias float64 // relative sensor minus physical angle

	velocitySetpoint float64
	appliedVolts     float64
	positionMeters   float64
	turnVelocity     float64
	fault            bool
}

// NewSimModule creates a simulated module. offsetDegrees is the absolute
// sensor reading when the wheel points forward; dt is the period between
// UpdateInputs calls in seconds.
func NewSimModule(offsetDegrees, maxSpeed, dt float64) *SimModule {
	return &SimModule{maxSpeed: maxSpeed, offset: offsetDegrees, dt: dt}
}

// SetPhysicalAngle places the wheel at an angle without moving the sensors'
// relationship to it. Used to seed a misaligned start.
func (m *SimModule) SetPhysicalAngle(deg float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.physicalDeg = deg
}

// InjectFault makes subsequent reads fail until cleared.
func (m *SimModule) InjectFault(fault bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = fault
}

func (m *SimModule) UpdateInputs(inputs *ModuleInputs) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fault {
		return ErrSimulatedFault
	}

	m.positionMeters += m.velocitySetpoint * m.dt

	inputs.DrivePositionMeters = m.positionMeters
	inputs.DriveVelocityMetersPerSec = m.velocitySetpoint
	inputs.DriveAppliedVolts = m.appliedVolts
	inputs.DriveCurrentAmps = []float64{math.Abs(m.appliedVolts) * 3.0}
	inputs.DriveTempCelsius = []float64{25.0}

	inputs.TurnAbsoluteDegrees = wrap360(m.physicalDeg + m.offset)
	inputs.TurnPositionDegrees = m.physicalDeg + m.encoderBias
	inputs.TurnVelocityDegreesPerSec = m.turnVelocity
	inputs.TurnAppliedVolts = 0
	inputs.TurnCurrentAmps = 0
	inputs.TurnTempCelsius = 25.0
	m.turnVelocity = 0
	return nil
}

func (m *SimModule) SetDrivePID(velocityMetersPerSec, feedforwardVolts float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.velocitySetpoint = velocityMetersPerSec
	m.appliedVolts = clamp(feedforwardVolts, -nominalBatteryVolts, nominalBatteryVolts)
}

func (m *SimModule) SetDrivePercent(fraction float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fraction = clamp(fraction, -1, 1)
	m.velocitySetpoint = fraction * m.maxSpeed
	m.appliedVolts = fraction * nominalBatteryVolts
}

func (m *SimModule) SetTurnPID(positionDegrees float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := positionDegrees - m.encoderBias
	if m.dt > 0 {
		m.turnVelocity = (target - m.physicalDeg) / m.dt
	}
	m.physicalDeg = target
}

func (m *SimModule) SetTurnEncoder(positionDegrees float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encoderBias = positionDegrees - m.physicalDeg
}

func (m *SimModule) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.velocitySetpoint = 0
	m.appliedVolts = 0
}

// SimGyro integrates the chassis rotation rate reported by the drive.
type SimGyro struct {
	mu         sync.Mutex
	dt         float64
	omegaDeg   float64
	headingDeg float64
	fault      bool
}

// NewSimGyro creates a simulated heading sensor updated every dt seconds.
func NewSimGyro(dt float64) *SimGyro {
	return &SimGyro{dt: dt}
}

// ObserveOmega sets the rotation rate integrated on the next update.
func (g *SimGyro) ObserveOmega(radiansPerSec float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.omegaDeg = radiansPerSec * 180.0 / math.Pi
}

// InjectFault disconnects the sensor until cleared.
func (g *SimGyro) InjectFault(fault bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fault = fault
}

func (g *SimGyro) UpdateInputs(inputs *GyroInputs) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fault {
		inputs.Connected = false
		return ErrSimulatedFault
	}
	g.headingDeg += g.omegaDeg * g.dt
	inputs.Connected = true
	inputs.PositionDegrees = g.headingDeg
	inputs.VelocityDegreesPerSec = g.omegaDeg
	return nil
}

func (g *SimGyro) ResetHeading() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.headingDeg = 0
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
