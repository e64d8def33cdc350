package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/okaru/aminokit/socket"
)

// Config holds batch archiver settings.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// DefaultConfig returns settings suitable for a single chat stream.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
		BufferSize:    5000,
	}
}

// Metrics counts archiver activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Dropped   int64
	Errors    int64
}

// DB is the subset of *pgxpool.Pool the recorder writes through.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Recorder archives chat message frames to the chat_messages table.
type Recorder struct {
	cfg    Config
	logger *slog.Logger

	input chan messageRow
	db    DB

	batch       []messageRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// messageRow is one archived chat message.
type messageRow struct {
	MessageID      string
	ThreadID       string
	CommunityID    int64
	AuthorID       string
	AuthorNickname string
	MsgType        int
	MediaType      int
	Content        string
	MediaValue     string
	ReceivedAt     int64 // microseconds
}

// New creates a Recorder writing to db.
func New(cfg Config, db DB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan messageRow, cfg.BufferSize),
		batch:  make([]messageRow, 0, cfg.BatchSize),
	}
}

// Handle is a socket handler archiving chat message frames. Frames that do
// not decode are dropped; the session manager already treats them as a
// protocol failure.
func (r *Recorder) Handle(f socket.Frame) {
	p, err := f.DecodeChatMessage()
	if err != nil {
		return
	}

	select {
	case r.input <- r.transform(p):
	default:
		r.batchMu.Lock()
		r.metrics.Dropped++
		r.batchMu.Unlock()
		r.logger.Warn("recorder buffer full, dropping message",
			"message_id", p.ChatMessage.MessageID,
		)
	}
}

// Start begins consuming messages and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder. Rows still queued or batched are
// flushed under ctx, which bounds the final database write.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping recorder")

	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	// Drain rows the consumer never picked up, then flush everything with
	// the caller's ctx; the run ctx is already cancelled.
	r.drainInput()
	r.flush(ctx)

	return nil
}

// drainInput moves rows still queued in the input channel into the batch.
func (r *Recorder) drainInput() {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	for {
		select {
		case row := <-r.input:
			r.batch = append(r.batch, row)
		default:
			return
		}
	}
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// consumeLoop reads from the input channel and accumulates batches.
func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case row := <-r.input:
			r.handleRow(row)
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush(r.ctx)
		}
	}
}

// handleRow adds a row to the batch.
func (r *Recorder) handleRow(row messageRow) {
	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush(r.ctx)
	}
}

// transform converts a chat message payload to a messageRow.
func (r *Recorder) transform(p *socket.ChatMessagePayload) messageRow {
	return messageRow{
		MessageID:      p.ChatMessage.MessageID,
		ThreadID:       p.ChatMessage.ThreadID,
		CommunityID:    p.CommunityID,
		AuthorID:       p.ChatMessage.Author.UserID,
		AuthorNickname: p.ChatMessage.Author.Nickname,
		MsgType:        p.ChatMessage.Type,
		MediaType:      p.ChatMessage.MediaType,
		Content:        p.ChatMessage.Content,
		MediaValue:     p.ChatMessage.MediaValue,
		ReceivedAt:     time.Now().UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (r *Recorder) flush(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]messageRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	conflicts, err := r.batchInsert(ctx, batch)
	if err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch) - conflicts)
	r.metrics.Conflicts += int64(conflicts)
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed messages",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (r *Recorder) batchInsert(ctx context.Context, rows []messageRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO chat_messages (message_id, thread_id, ndc_id, author_id, author_nickname, msg_type, media_type, content, media_value, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (message_id) DO NOTHING
		`, row.MessageID, row.ThreadID, row.CommunityID, row.AuthorID, row.AuthorNickname, row.MsgType, row.MediaType, row.Content, row.MediaValue, row.ReceivedAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
