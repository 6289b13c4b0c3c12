package accounting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RecorderConfig configures the async recorder.
type RecorderConfig struct {
	// Enabled enables accounting. A disabled recorder accepts and discards
	// records.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000.
	AsyncBuffer int

	// WriteTimeout bounds each storage write and each enqueue attempt.
	// Default: 5 seconds.
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes accounting records asynchronously. Record returns
// immediately; a background worker drains the channel into storage.
type Recorder struct {
	storage Storage
	config  *RecorderConfig
	logger  *slog.Logger

	recordChan chan *Record
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewRecorder creates a recorder over a storage backend and starts its
// worker.
func NewRecorder(storage Storage, config *RecorderConfig) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		logger:     slog.Default().With("component", "accounting.recorder"),
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("accounting recorder initialized",
		"enabled", config.Enabled,
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)
	return r
}

// Record enqueues a record for async writing. When the buffer stays full
// past the write timeout, the record is dropped and an error returned.
func (r *Recorder) Record(rec *Record) error {
	if !r.config.Enabled {
		return nil
	}
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	select {
	case r.recordChan <- rec:
		return nil
	case <-time.After(r.config.WriteTimeout):
		r.logger.Error("accounting channel full, dropping record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return fmt.Errorf("accounting channel full, record %s dropped", rec.ID)
	case <-r.done:
		return fmt.Errorf("recorder shut down, record %s dropped", rec.ID)
	}
}

// Close drains the channel and waits for pending writes.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down accounting recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("accounting recorder shut down")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.writeRecord(rec)

		case <-r.done:
			r.logger.Info("draining accounting channel before shutdown",
				"pending_count", len(r.recordChan),
			)
			for {
				select {
				case rec := <-r.recordChan:
					r.writeRecord(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, rec); err != nil {
		r.logger.Error("failed to store accounting record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"error", err,
		)
		return
	}

	r.logger.Debug("accounting record stored",
		"record_id", rec.ID,
		"request_id", rec.RequestID,
		"verdict", rec.Verdict,
	)
}
