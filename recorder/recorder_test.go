package recorder

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/okaru/aminokit/socket"
)

// fakeDB records batches instead of writing to Postgres.
type fakeDB struct {
	mu      sync.Mutex
	queued  int
	ctxErrs []error
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued += b.Len()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return &fakeBatchResults{}
}

type fakeBatchResults struct{}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}
func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, nil }
func (r *fakeBatchResults) QueryRow() pgx.Row        { return nil }
func (r *fakeBatchResults) Close() error             { return nil }

func chatFrame(t *testing.T, payload socket.ChatMessagePayload) socket.Frame {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return socket.Frame{Type: socket.TypeChatMessage, Payload: raw}
}

func TestRecorder_Transform(t *testing.T) {
	r := New(DefaultConfig(), nil, nil)

	p := &socket.ChatMessagePayload{
		CommunityID: 42,
		ChatMessage: socket.ChatMessage{
			Type:       socket.ChatText,
			MediaType:  socket.MediaImage,
			MessageID:  "m-123",
			ThreadID:   "th-9",
			Content:    "look at this",
			MediaValue: "https://cdn.example/img.png",
			Author:     socket.Author{UserID: "u-7", Nickname: "nick"},
		},
	}

	row := r.transform(p)

	if row.MessageID != "m-123" {
		t.Errorf("MessageID = %s, want m-123", row.MessageID)
	}
	if row.ThreadID != "th-9" {
		t.Errorf("ThreadID = %s, want th-9", row.ThreadID)
	}
	if row.CommunityID != 42 {
		t.Errorf("CommunityID = %d, want 42", row.CommunityID)
	}
	if row.AuthorID != "u-7" || row.AuthorNickname != "nick" {
		t.Errorf("author = %s/%s, want u-7/nick", row.AuthorID, row.AuthorNickname)
	}
	if row.MsgType != socket.ChatText || row.MediaType != socket.MediaImage {
		t.Errorf("types = %d/%d", row.MsgType, row.MediaType)
	}
	if row.ReceivedAt == 0 {
		t.Error("ReceivedAt not set")
	}
}

func TestRecorder_HandleEnqueues(t *testing.T) {
	r := New(DefaultConfig(), nil, nil)

	f := chatFrame(t, socket.ChatMessagePayload{
		CommunityID: 1,
		ChatMessage: socket.ChatMessage{MessageID: "m-1"},
	})
	r.Handle(f)

	select {
	case row := <-r.input:
		if row.MessageID != "m-1" {
			t.Errorf("MessageID = %s, want m-1", row.MessageID)
		}
	default:
		t.Fatal("Handle did not enqueue the message")
	}
}

func TestRecorder_HandleDropsUndecodable(t *testing.T) {
	r := New(DefaultConfig(), nil, nil)

	r.Handle(socket.Frame{Type: socket.TypeChatMessage, Payload: json.RawMessage(`"not an object"`)})

	select {
	case row := <-r.input:
		t.Errorf("undecodable frame enqueued: %+v", row)
	default:
	}
}

func TestRecorder_HandleDropsWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 1
	r := New(cfg, nil, nil)

	f := chatFrame(t, socket.ChatMessagePayload{
		ChatMessage: socket.ChatMessage{MessageID: "m-1"},
	})
	r.Handle(f)
	r.Handle(f) // buffer full, dropped

	if got := r.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestRecorder_BatchAccumulation(t *testing.T) {
	cfg := Config{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 10}
	r := New(cfg, nil, nil)

	// No Start: push rows through handleRow directly so nothing flushes.
	for i := 0; i < 3; i++ {
		r.handleRow(messageRow{MessageID: "m"})
	}

	r.batchMu.Lock()
	got := len(r.batch)
	r.batchMu.Unlock()
	if got != 3 {
		t.Errorf("batch length = %d, want 3", got)
	}
}

func TestRecorder_StopFlushesPendingRows(t *testing.T) {
	db := &fakeDB{}
	cfg := Config{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 10}
	r := New(cfg, db, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		r.Handle(chatFrame(t, socket.ChatMessagePayload{
			ChatMessage: socket.ChatMessage{MessageID: "m"},
		}))
	}

	// The flush interval is an hour: only Stop can write these rows out.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.queued != 3 {
		t.Errorf("rows written = %d, want 3", db.queued)
	}
	for _, err := range db.ctxErrs {
		if err != nil {
			t.Errorf("final flush ran with a dead context: %v", err)
		}
	}

	stats := r.Stats()
	if stats.Inserts != 3 {
		t.Errorf("Inserts = %d, want 3", stats.Inserts)
	}
	if stats.Errors != 0 {
		t.Errorf("Errors = %d, want 0", stats.Errors)
	}
}

func TestRecorder_StopDrainsQueuedInput(t *testing.T) {
	db := &fakeDB{}
	cfg := Config{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 10}
	r := New(cfg, db, nil)

	// Never started: rows sit in the input channel until Stop drains them.
	for i := 0; i < 2; i++ {
		r.Handle(chatFrame(t, socket.ChatMessagePayload{
			ChatMessage: socket.ChatMessage{MessageID: "m"},
		}))
	}

	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.queued != 2 {
		t.Errorf("rows written = %d, want 2", db.queued)
	}
}

func TestRecorder_StopWithoutWork(t *testing.T) {
	cfg := Config{BatchSize: 10, FlushInterval: 50 * time.Millisecond, BufferSize: 10}
	r := New(cfg, nil, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Empty batch: Stop must return promptly and never touch the nil pool.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := r.Stats().Flushes; got != 0 {
		t.Errorf("Flushes = %d, want 0 with no rows", got)
	}
}
