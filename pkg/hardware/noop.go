package hardware

var (
	_ ModuleIO = NoopModule{}
	_ GyroIO   = NoopGyro{}
)

// NoopModule ignores commands and reports a stationary wheel. It lets the
// controller run on a machine with no motors attached.
type NoopModule struct{}

func (NoopModule) UpdateInputs(inputs *ModuleInputs) error {
	*inputs = ModuleInputs{}
	return nil
}

func (NoopModule) SetDrivePID(float64, float64) {}
func (NoopModule) SetDrivePercent(float64)      {}
func (NoopModule) SetTurnPID(float64)           {}
func (NoopModule) SetTurnEncoder(float64)       {}
func (NoopModule) Stop()                        {}

// NoopGyro reports a disconnected sensor at heading zero.
type NoopGyro struct{}

func (NoopGyro) UpdateInputs(inputs *GyroInputs) error {
	*inputs = GyroInputs{}
	return nil
}

func (NoopGyro) ResetHeading() {}
