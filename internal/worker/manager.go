package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawbook/visibility/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second
)

// Manager orchestrates worker goroutines that consume relationship events
// from the Redis stream and feed them to the Handler.
type Manager struct {
	consumer  queue.Consumer
	handler   *Handler
	workers   int
	batchSize int64
	blockTime time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

// NewManager creates a new worker manager, filling zero config fields with
// defaults.
func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:  consumer,
		handler:   handler,
		workers:   cfg.WorkerCount,
		batchSize: cfg.BatchSize,
		blockTime: cfg.BlockTimeout,
	}
}

// Start begins the worker goroutines. Call Stop to shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, queue.StreamRelationships, queue.ConsumerGroupAudit); err != nil {
		return err
	}

	for i := 0; i < m.workers; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, fmt.Sprintf("audit-worker-%d", workerID))
	}

	log.Info().
		Int("workers", m.workers).
		Str("stream", queue.StreamRelationships).
		Str("group", queue.ConsumerGroupAudit).
		Msg("audit workers started")
	return nil
}

// Stop shuts down all workers and blocks until they finish.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	log.Info().Msg("audit workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	// Drain messages left pending by a previous crash before taking new ones
	m.processPending(workerID, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processNew(workerID, consumerName)
		}
	}
}

func (m *Manager) processPending(workerID int, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, queue.StreamRelationships, queue.ConsumerGroupAudit, consumerName, m.batchSize)
		if err != nil {
			log.Error().Err(err).Int("worker", workerID).Msg("failed to read pending messages")
			return
		}
		if len(messages) == 0 {
			return
		}
		m.handleBatch(workerID, messages)
	}
}

func (m *Manager) processNew(workerID int, consumerName string) {
	messages, err := m.consumer.Read(
		m.ctx,
		queue.StreamRelationships,
		queue.ConsumerGroupAudit,
		consumerName,
		m.batchSize,
		m.blockTime,
	)
	if err != nil {
		log.Error().Err(err).Int("worker", workerID).Msg("failed to read messages")
		time.Sleep(time.Second) // back off on error
		return
	}
	if len(messages) == 0 {
		return
	}

	m.handleBatch(workerID, messages)
}

func (m *Manager) handleBatch(workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			// ACK anyway: the audit insert is idempotent on event_id and a
			// poisoned message must not wedge the group.
			log.Error().Err(err).
				Int("worker", workerID).
				Str("msg_id", msg.ID).
				Str("type", msg.Event.Type).
				Msg("event handling failed")
		}

		if err := m.consumer.Ack(m.ctx, queue.StreamRelationships, queue.ConsumerGroupAudit, msg.ID); err != nil {
			log.Error().Err(err).
				Int("worker", workerID).
				Str("msg_id", msg.ID).
				Msg("ack failed")
		}
	}
}
