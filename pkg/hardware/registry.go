package hardware

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/open-teleop/swerve/pkg/config"
)

// ErrUnknownVariant is returned when no factory is registered for a platform
// variant.
var ErrUnknownVariant = errors.New("unknown platform variant")

// Set is the hardware for one chassis. Modules are ordered by module index.
type Set struct {
	Modules []ModuleIO
	Gyro    GyroIO
}

// ModuleFactory builds the IO for one module from its constants.
type ModuleFactory func(constants config.ModuleConstants, cfg *config.RobotConfig) (ModuleIO, error)

// GyroFactory builds the heading sensor.
type GyroFactory func(cfg *config.RobotConfig) (GyroIO, error)

// Variant pairs the factories for one platform variant.
type Variant struct {
	Module ModuleFactory
	Gyro   GyroFactory
}

// Registry maps platform variant names to hardware factories
type Registry struct {
	mu       sync.RWMutex
	variants map[string]Variant
}

// NewRegistry returns a registry with the built-in "sim" and "noop" variants.
func NewRegistry() *Registry {
	r := &Registry{variants: make(map[string]Variant)}
	r.Register("sim", Variant{
		Module: func(c config.ModuleConstants, cfg *config.RobotConfig) (ModuleIO, error) {
			return NewSimModule(c.AngleOffsetDegrees, cfg.Swerve.MaxSpeed, cfg.Platform.TickPeriodSeconds()), nil
		},
		Gyro: func(cfg *config.RobotConfig) (GyroIO, error) {
			return NewSimGyro(cfg.Platform.TickPeriodSeconds()), nil
		},
	})
	r.Register("noop", Variant{
		Module: func(config.ModuleConstants, *config.RobotConfig) (ModuleIO, error) {
			return NoopModule{}, nil
		},
		Gyro: func(*config.RobotConfig) (GyroIO, error) {
			return NoopGyro{}, nil
		},
	})
	return r
}

// Register adds or replaces the factories for a variant.
func (r *Registry) Register(name string, v Variant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[name] = v
}

// Variants returns the registered variant names in sorted order.
func (r *Registry) Variants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the hardware set for cfg.Platform.Variant.
func (r *Registry) New(cfg *config.RobotConfig) (*Set, error) {
	r.mu.RLock()
	v, ok := r.variants[cfg.Platform.Variant]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, cfg.Platform.Variant)
	}

	set := &Set{Modules: make([]ModuleIO, config.ModuleCount)}
	for i := 0; i < config.ModuleCount; i++ {
		constants, err := cfg.Swerve.Module(i)
		if err != nil {
			return nil, err
		}
		io, err := v.Module(constants, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create module %d IO: %w", i, err)
		}
		set.Modules[i] = io
	}

	gyro, err := v.Gyro(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gyro IO: %w", err)
	}
	set.Gyro = gyro
	return set, nil
}
