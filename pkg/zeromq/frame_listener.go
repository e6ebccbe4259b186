package zeromq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/open-teleop/swerve/pkg/config"
	"github.com/open-teleop/swerve/pkg/geometry"
	customlog "github.com/open-teleop/swerve/pkg/log"
	"github.com/open-teleop/swerve/pkg/vision"
	"github.com/open-teleop/swerve/pkg/wire"
)

// FrameSink receives decoded camera frames
type FrameSink interface {
	Name() string
	Submit(r vision.PipelineResult) uint64
}

// FrameListener subscribes to the camera coprocessor and forwards its
// VisionFrame messages to a FrameSink
type FrameListener struct {
	socket  *zmq4.Socket
	poller  *zmq4.Poller
	sink    FrameSink
	topic   string
	logger  customlog.Logger
	running atomic.Bool
	wg      sync.WaitGroup

	received atomic.Uint64
	dropped  atomic.Uint64
}

// NewFrameListener connects a SUB socket to the camera publisher
func NewFrameListener(ctx *zmq4.Context, cfg config.ZeroMQBootstrap, sink FrameSink, logger customlog.Logger) (*FrameListener, error) {
	if cfg.VisionConnectAddress == "" {
		return nil, fmt.Errorf("vision connect address is not configured")
	}

	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if cfg.ReconnectIntervalMs > 0 {
		if err := socket.SetReconnectIvl(time.Duration(cfg.ReconnectIntervalMs) * time.Millisecond); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to set reconnect interval: %w", err)
		}
	}
	if err := socket.SetSubscribe(cfg.VisionTopic); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to subscribe to %q: %w", cfg.VisionTopic, err)
	}
	if err := socket.Connect(cfg.VisionConnectAddress); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.VisionConnectAddress, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger = logger.WithField("camera", sink.Name())
	logger.Infof("Frame listener connected to %s (topic %q)", cfg.VisionConnectAddress, cfg.VisionTopic)

	return &FrameListener{
		socket: socket,
		poller: poller,
		sink:   sink,
		topic:  cfg.VisionTopic,
		logger: logger,
	}, nil
}

// Start begins receiving frames
func (l *FrameListener) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	l.wg.Add(1)
	go l.receiveLoop()
}

// Stop halts the receive loop and closes the socket
func (l *FrameListener) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.wg.Wait()
	l.socket.Close()
	l.logger.Infof("Frame listener stopped (%d received, %d dropped)", l.received.Load(), l.dropped.Load())
}

// Stats returns the number of frames forwarded and discarded
func (l *FrameListener) Stats() (received, dropped uint64) {
	return l.received.Load(), l.dropped.Load()
}

func (l *FrameListener) receiveLoop() {
	defer l.wg.Done()

	for l.running.Load() {
		sockets, err := l.poller.Poll(pollInterval)
		if err != nil {
			if l.running.Load() {
				l.logger.Warnf("Error polling socket: %v", err)
			}
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		parts, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			if l.running.Load() {
				l.logger.Warnf("Error receiving frame: %v", err)
			}
			continue
		}
		l.handle(parts)
	}
}

func (l *FrameListener) handle(parts [][]byte) {
	if len(parts) != 2 {
		l.dropped.Add(1)
		l.logger.Warnf("Dropping message with %d parts, want topic and payload", len(parts))
		return
	}

	frame, err := wire.DecodeVisionFrame(parts[1])
	if err != nil {
		l.dropped.Add(1)
		l.logger.Warnf("Dropping frame on %q: %v", parts[0], err)
		return
	}
	if frame.CameraName != "" && frame.CameraName != l.sink.Name() {
		l.dropped.Add(1)
		l.logger.Debugf("Ignoring frame from camera %q", frame.CameraName)
		return
	}

	seq := l.sink.Submit(FrameToResult(frame))
	l.received.Add(1)
	l.logger.Debugf("Frame %d: targets=%t latency=%.1fms", seq, frame.HasTargets, frame.LatencyMs)
}

// FrameToResult converts a wire frame into a pipeline result. A frame without
// a camera-to-target transform leaves it as the identity.
func FrameToResult(f *wire.VisionFrameT) vision.PipelineResult {
	r := vision.PipelineResult{
		HasTargets:    f.HasTargets,
		LatencyMillis: f.LatencyMs,
	}
	if !f.HasTargets {
		return r
	}

	r.Best = vision.Target{
		Yaw:           f.Yaw,
		Pitch:         f.Pitch,
		FiducialID:    int(f.FiducialId),
		PoseAmbiguity: f.PoseAmbiguity,
	}
	if v := f.CamToTarget; len(v) == wire.CamToTargetLen {
		r.Best.CameraToTarget = geometry.Transform3d{
			Translation: r3.Vec{X: v[0], Y: v[1], Z: v[2]},
			Rotation:    geometry.NewRotation3dFromQuaternion(v[3], v[4], v[5], v[6]),
		}
	}
	return r
}
