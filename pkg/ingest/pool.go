package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/session"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
	defaultJobTimeout        = 5 * time.Minute
)

// ErrBusy is returned when the ingestion queue is full. Callers should
// report it as a retryable overload condition.
var ErrBusy = errors.New("ingestion queue full")

// PoolConfig is the configuration options for the ingestion worker pool.
type PoolConfig struct {
	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// JobTimeout bounds a single ingestion once a worker picks it up
	// (defaults to 5 minutes).
	JobTimeout time.Duration
}

// Pool bounds the number of concurrent ingestions. Embedding calls are slow
// remote I/O; without the bound, a burst of uploads would fan out into an
// unbounded number of in-flight provider calls.
type Pool struct {
	ingestor   *Ingestor
	queue      chan job
	wg         sync.WaitGroup
	jobTimeout time.Duration
	logger     *zap.Logger
}

type job struct {
	ctx    context.Context
	cancel context.CancelFunc
	req    *Request
	result chan jobResult
}

type jobResult struct {
	sess *session.Session
	err  error
}

// NewPool creates a pool over the given ingestor and starts its workers.
func NewPool(c PoolConfig, ingestor *Ingestor, logger *zap.Logger) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = defaultJobTimeout
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		ingestor:   ingestor,
		queue:      make(chan job, c.QueueSize),
		jobTimeout: c.JobTimeout,
		logger:     logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Ingest submits one upload and blocks until a worker has processed it.
// A full queue fails fast with ErrBusy rather than queueing the caller
// indefinitely.
func (p *Pool) Ingest(ctx context.Context, req *Request) (*session.Session, error) {
	// The worker can outlive the caller: fasthttp recycles its RequestCtx
	// once the upload handler returns, so the job runs on a detached
	// context with its own deadline. ctx only bounds the caller's wait
	// below.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.jobTimeout)

	j := job{
		ctx:    jobCtx,
		cancel: cancel,
		req:    req,
		// Buffered so a worker never blocks on a caller that gave up.
		result: make(chan jobResult, 1),
	}

	select {
	case p.queue <- j:
	default:
		cancel()
		p.logger.Warn("ingestion rejected, queue full",
			zap.String("source", req.Source),
		)
		return nil, ErrBusy
	}

	select {
	case res := <-j.result:
		return res.sess, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker continuously pulls jobs off the queue.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingestion worker started", zap.Uint("worker_id", id))

	for j := range p.queue {
		sess, err := p.ingestor.Ingest(j.ctx, j.req)
		j.cancel()
		j.result <- jobResult{sess: sess, err: err}
	}

	p.logger.Debug("ingestion worker stopped", zap.Uint("worker_id", id))
}
