package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	applogger "signalforge/pkg/logger"
)

type recordingArchive struct {
	mu      sync.Mutex
	candles []models.Candle
}

func (a *recordingArchive) Append(_ context.Context, _ string, _ repository.Timeframe, cs []models.Candle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.candles = append(a.candles, cs...)
	return nil
}

func (a *recordingArchive) Read(context.Context, string, repository.Timeframe, time.Time, time.Time) ([]models.Candle, error) {
	return nil, nil
}

func (a *recordingArchive) Health(context.Context) error { return nil }
func (a *recordingArchive) Close() error                 { return nil }

func (a *recordingArchive) snapshot() []models.Candle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Candle(nil), a.candles...)
}

const closedKlineFrame = `{"data":{"s":"BTCUSDT","k":{"t":60000,"T":119999,"o":"100","h":"101","l":"99","c":"100.5","v":"12.5","x":true}}}`

// klineServer serves one closed kline per connection, then closes it.
func klineServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		_ = c.WriteMessage(websocket.TextMessage, []byte(closedKlineFrame))
		time.Sleep(30 * time.Millisecond)
		_ = c.Close()
	}))
}

// Each readLoop owns exactly one ping loop and waits for it before
// returning, so reconnecting can never stack a second writer on one
// connection. Two full connect/read/close rounds against the same warmer
// must both terminate and archive their kline.
func TestReadLoopReleasesPingerAcrossReconnects(t *testing.T) {
	srv := klineServer(t)
	defer srv.Close()

	archive := &recordingArchive{}
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	w := New(url, []string{"BTC/USDT"}, time.Millisecond, 2*time.Millisecond, archive, applogger.Nop())

	ctx := context.Background()
	for round := 0; round < 2; round++ {
		if err := w.Connect(ctx); err != nil {
			t.Fatalf("round %d connect: %v", round, err)
		}
		done := make(chan struct{})
		go func() {
			w.readLoop(ctx)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("round %d: readLoop did not return after server close", round)
		}
		_ = w.Close()
	}

	got := archive.snapshot()
	if len(got) != 2 {
		t.Fatalf("archived candles = %d, want one per round", len(got))
	}
	if got[0].Close != 100.5 || got[0].OpenTime != 60000 {
		t.Errorf("archived candle = %+v, want close 100.5 at open 60000", got[0])
	}
}
