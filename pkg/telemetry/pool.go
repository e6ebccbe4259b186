package telemetry

import (
	"sync"
	"time"

	customlog "github.com/open-teleop/swerve/pkg/log"
)

// Processor handles one queued item on a pool worker
type Processor[T any] func(item T) error

// Pool is a fixed set of workers draining a bounded queue. Submit never
// blocks: when the queue is full the item is dropped and counted.
type Pool[T any] struct {
	name        string
	workerCount int
	queueSize   int
	logger      customlog.Logger
	queue       chan T
	processor   Processor[T]
	running     bool
	wg          sync.WaitGroup
	mu          sync.Mutex
	metrics     *PoolMetrics
}

// PoolMetrics tracks metrics for a pool
type PoolMetrics struct {
	ProcessedCount    int64
	ErrorCount        int64
	QueuedCount       int64
	DroppedCount      int64
	LastProcessedTime int64
	ProcessingTimeAvg int64 // in microseconds
	ProcessingTimeMax int64 // in microseconds
	mu                sync.Mutex
}

// NewPool creates a stopped pool
func NewPool[T any](name string, workerCount, queueSize int, processor Processor[T], logger customlog.Logger) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool[T]{
		name:        name,
		workerCount: workerCount,
		queueSize:   queueSize,
		logger:      logger,
		queue:       make(chan T, queueSize),
		processor:   processor,
		metrics:     &PoolMetrics{},
	}
}

// Submit queues an item. It returns false when the pool is stopped or full.
func (p *Pool[T]) Submit(item T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return false
	}

	select {
	case p.queue <- item:
		p.metrics.mu.Lock()
		p.metrics.QueuedCount++
		p.metrics.mu.Unlock()
		return true
	default:
		p.metrics.mu.Lock()
		p.metrics.DroppedCount++
		dropped := p.metrics.DroppedCount
		p.metrics.mu.Unlock()
		// Log the first drop and then every hundredth
		if dropped%100 == 1 {
			p.logger.Warnf("%s pool queue is full, discarding item (%d dropped)", p.name, dropped)
		}
		return false
	}
}

// Start starts the pool workers
func (p *Pool[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.logger.Infof("Starting %s pool with %d workers", p.name, p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains the queue and waits for the workers. A stopped pool cannot be restarted.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	// Closing under the lock keeps Submit from sending on a closed channel
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.logMetrics()
}

func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugf("%s pool worker %d started", p.name, id)

	for item := range p.queue {
		startTime := time.Now()
		err := p.processor(item)
		processingTime := time.Since(startTime).Microseconds()

		p.metrics.mu.Lock()
		p.metrics.ProcessedCount++
		p.metrics.LastProcessedTime = time.Now().UnixNano()
		if p.metrics.ProcessingTimeAvg == 0 {
			p.metrics.ProcessingTimeAvg = processingTime
		} else {
			p.metrics.ProcessingTimeAvg = (p.metrics.ProcessingTimeAvg + processingTime) / 2
		}
		if processingTime > p.metrics.ProcessingTimeMax {
			p.metrics.ProcessingTimeMax = processingTime
		}
		if err != nil {
			p.metrics.ErrorCount++
		}
		p.metrics.mu.Unlock()

		if err != nil {
			p.logger.Debugf("Error processing item in %s pool: %v", p.name, err)
		}
	}

	p.logger.Debugf("%s pool worker %d stopped", p.name, id)
}

// GetMetrics returns a copy of the current metrics
func (p *Pool[T]) GetMetrics() PoolMetrics {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	return PoolMetrics{
		ProcessedCount:    p.metrics.ProcessedCount,
		ErrorCount:        p.metrics.ErrorCount,
		QueuedCount:       p.metrics.QueuedCount,
		DroppedCount:      p.metrics.DroppedCount,
		LastProcessedTime: p.metrics.LastProcessedTime,
		ProcessingTimeAvg: p.metrics.ProcessingTimeAvg,
		ProcessingTimeMax: p.metrics.ProcessingTimeMax,
	}
}

func (p *Pool[T]) logMetrics() {
	m := p.GetMetrics()
	p.logger.Infof("%s pool metrics: processed=%d, errors=%d, dropped=%d, avg_time=%dµs, max_time=%dµs",
		p.name, m.ProcessedCount, m.ErrorCount, m.DroppedCount, m.ProcessingTimeAvg, m.ProcessingTimeMax)
}

// GetQueueLength returns the current length of the queue
func (p *Pool[T]) GetQueueLength() int {
	return len(p.queue)
}

// GetQueueCapacity returns the capacity of the queue
func (p *Pool[T]) GetQueueCapacity() int {
	return p.queueSize
}
