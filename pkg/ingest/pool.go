// Package ingest embeds a batch of items and persists the resulting records,
// optionally pushing them to a search index and announcing them on an event
// stream.
//
// Items are processed independently by a bounded pool of workers. A failure
// on one item is logged and counted and never stops the batch.
package ingest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
	"github.com/papercomputeco/driftlens/pkg/eventstream"
	"github.com/papercomputeco/driftlens/pkg/searchindex"
	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

var (
	defaultNumWorkers   uint = 1
	defaultJobQueueSize uint = 64
)

// Indexer pushes documents to a search index.
type Indexer interface {
	Upload(ctx context.Context, doc searchindex.Document) error
}

// Job is a unit of work for the pool: one item and its batch position.
type Job struct {
	Index int
	Item  embeddings.Item
}

// Config is the configuration options for the ingester.
type Config struct {
	// Client acquires embeddings. Required.
	Client *embeddings.Client

	// Store persists records. Required.
	Store store.Store

	// Index is the optional search index to populate.
	Index Indexer

	// Publisher is the optional event stream for ingestion events.
	Publisher eventstream.Publisher

	// NumWorkers is the number of concurrent workers. One worker makes
	// ingestion sequential.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Summary counts what happened to each item of a batch.
type Summary struct {
	Total         int
	Stored        int
	EmbedFailed   int
	StoreFailed   int
	IndexFailed   int
	PublishFailed int

	// IDs are the stored record IDs, in input order.
	IDs []string

	// Missing are the input positions that produced no embedding.
	Missing []int
}

// Ingester runs ingestion batches.
type Ingester struct {
	config *Config
	logger *zap.Logger
}

// NewIngester validates c and applies defaults.
func NewIngester(c *Config) (*Ingester, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("ingest: embedding client is required")
	}
	if c.Store == nil {
		return nil, fmt.Errorf("ingest: store is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ingester{config: c, logger: logger}, nil
}

// batch is the shared, mutex-guarded state of one Run.
type batch struct {
	mu      sync.Mutex
	summary Summary
	ids     []string
}

func (b *batch) record(fn func(s *Summary)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.summary)
}

// Run ingests items and returns the batch summary. It only returns an error
// when ctx is done before the batch completes; per-item failures are counted
// in the summary.
func (i *Ingester) Run(ctx context.Context, items []embeddings.Item) (*Summary, error) {
	b := &batch{
		summary: Summary{Total: len(items)},
		ids:     make([]string, len(items)),
	}

	queue := make(chan Job, i.config.QueueSize)

	var wg sync.WaitGroup
	wg.Add(int(i.config.NumWorkers))
	for id := range i.config.NumWorkers {
		go i.worker(ctx, id, queue, b, &wg)
	}

enqueue:
	for idx, item := range items {
		select {
		case queue <- Job{Index: idx, Item: item}:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(queue)
	wg.Wait()

	s := b.summary
	for _, id := range b.ids {
		if id != "" {
			s.IDs = append(s.IDs, id)
		}
	}
	sort.Ints(s.Missing)

	i.logger.Info("ingestion finished",
		zap.Int("total", s.Total),
		zap.Int("stored", s.Stored),
		zap.Int("embed_failed", s.EmbedFailed),
		zap.Int("store_failed", s.StoreFailed),
		zap.Int("index_failed", s.IndexFailed),
		zap.Int("publish_failed", s.PublishFailed),
	)

	if err := ctx.Err(); err != nil {
		return &s, fmt.Errorf("ingestion interrupted: %w", err)
	}
	return &s, nil
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (i *Ingester) worker(ctx context.Context, id uint, queue <-chan Job, b *batch, wg *sync.WaitGroup) {
	defer wg.Done()
	i.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range queue {
		if ctx.Err() != nil {
			continue
		}
		i.processJob(ctx, job, b)
	}

	i.logger.Debug("worker stopped", zap.Uint("worker_id", id))
}

// processJob embeds one item and fans the record out to the store, index and
// event stream.
func (i *Ingester) processJob(ctx context.Context, job Job, b *batch) {
	source := job.Item.Source

	v, err := i.config.Client.Embed(ctx, job.Item)
	if err != nil {
		i.logger.Error("embedding failed, skipping item",
			zap.Int("index", job.Index),
			zap.String("source", source),
			zap.Error(err),
		)
		b.record(func(s *Summary) {
			s.EmbedFailed++
			s.Missing = append(s.Missing, job.Index)
		})
		return
	}

	rec := vector.NewRecord(v, job.Item.Label, source)

	if err := i.config.Store.Upsert(ctx, rec); err != nil {
		i.logger.Error("failed to store record",
			zap.String("id", rec.ID),
			zap.String("source", source),
			zap.Error(err),
		)
		b.record(func(s *Summary) { s.StoreFailed++ })
		return
	}

	b.mu.Lock()
	b.summary.Stored++
	b.ids[job.Index] = rec.ID
	b.mu.Unlock()

	i.logger.Info("record stored",
		zap.String("id", rec.ID),
		zap.String("source", source),
		zap.Int("dimension", len(v)),
	)

	indexed := false
	if i.config.Index != nil {
		if err := i.config.Index.Upload(ctx, searchindex.NewDocument(rec)); err != nil {
			i.logger.Warn("failed to index record",
				zap.String("id", rec.ID),
				zap.Error(err),
			)
			b.record(func(s *Summary) { s.IndexFailed++ })
		} else {
			indexed = true
		}
	}

	if i.config.Publisher != nil {
		event := eventstream.NewRecordIngestedEvent(rec, indexed)
		if err := i.config.Publisher.PublishIngested(ctx, event); err != nil {
			i.logger.Warn("failed to publish ingestion event",
				zap.String("id", rec.ID),
				zap.Error(err),
			)
			b.record(func(s *Summary) { s.PublishFailed++ })
		}
	}
}
