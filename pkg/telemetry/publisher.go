package telemetry

import (
	"time"

	"github.com/google/uuid"

	customlog "github.com/open-teleop/swerve/pkg/log"
)

// MessageTypeTelemetry is the message type of published batches.
const MessageTypeTelemetry = "TELEMETRY"

// MessagePublisher sends a JSON message on a topic
type MessagePublisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// Batch is the set of values produced by one control tick.
type Batch struct {
	RunID     string                 `json:"run_id"`
	Sequence  uint64                 `json:"sequence"`
	Timestamp float64                `json:"timestamp"`
	Values    map[string]interface{} `json:"values"`
}

// Publisher is a Sink that keeps the latest value per key and, on Flush,
// hands a snapshot to a worker pool for publishing.
type Publisher struct {
	*Recorder

	runID     uuid.UUID
	topic     string
	publisher MessagePublisher
	pool      *Pool[Batch]
	logger    customlog.Logger
	sequence  uint64
}

// NewPublisher creates a Publisher with a fresh run ID. Call Start before Flush.
func NewPublisher(topic string, workers, queueSize int, publisher MessagePublisher, logger customlog.Logger) *Publisher {
	p := &Publisher{
		Recorder:  NewRecorder(),
		runID:     uuid.New(),
		topic:     topic,
		publisher: publisher,
		logger:    logger.WithField("component", "telemetry"),
	}
	p.pool = NewPool("telemetry", workers, queueSize, p.send, p.logger)
	return p
}

// RunID identifies this process's telemetry stream.
func (p *Publisher) RunID() uuid.UUID { return p.runID }

// Start starts the publishing workers.
func (p *Publisher) Start() {
	p.logger.Infof("Publishing telemetry on %q (run %s)", p.topic, p.runID)
	p.pool.Start()
}

// Stop publishes what is queued and stops the workers.
func (p *Publisher) Stop() {
	p.pool.Stop()
}

// Flush queues the current values. It never blocks and reports whether the
// batch was queued.
func (p *Publisher) Flush(now time.Time) bool {
	p.sequence++
	return p.pool.Submit(Batch{
		RunID:     p.runID.String(),
		Sequence:  p.sequence,
		Timestamp: float64(now.UnixNano()) / 1e9,
		Values:    p.Snapshot(),
	})
}

// Metrics returns the publishing pool metrics.
func (p *Publisher) Metrics() PoolMetrics {
	return p.pool.GetMetrics()
}

func (p *Publisher) send(b Batch) error {
	return p.publisher.PublishJSON(p.topic, MessageTypeTelemetry, b)
}
