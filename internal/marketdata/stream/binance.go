package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	applogger "signalforge/pkg/logger"
)

// DefaultURL is the Binance combined-stream endpoint.
const DefaultURL = "wss://stream.binance.com:9443/stream"

// writeWait bounds how long a ping write may block.
const writeWait = 10 * time.Second

// Warmer subscribes to Binance 1-minute kline streams and appends each
// closed candle to the archive, so the evaluator has history even after
// the REST providers' lookback window rolls past an entry time.
type Warmer struct {
	url            string
	pairs          []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	archive repository.CandleArchive
	logger  *applogger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a kline stream warmer for the given crypto pairs.
func New(url string, pairs []string, reconnectDelay, pingInterval time.Duration, archive repository.CandleArchive, logger *applogger.Logger) *Warmer {
	if url == "" {
		url = DefaultURL
	}
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Warmer{
		url:            url,
		pairs:          pairs,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		archive:        archive,
		logger:         logger,
	}
}

// Connect dials the combined stream for all configured pairs.
func (w *Warmer) Connect(ctx context.Context) error {
	streams := make([]string, 0, len(w.pairs))
	for _, p := range w.pairs {
		sym := strings.ToLower(strings.ReplaceAll(p, "/", ""))
		streams = append(streams, sym+"@kline_1m")
	}
	u := fmt.Sprintf("%s?streams=%s", w.url, strings.Join(streams, "/"))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	w.logger.Info("binance stream connected", applogger.Strings("pairs", w.pairs))
	return nil
}

func (w *Warmer) current() *websocket.Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn
}

type klineEvent struct {
	Data struct {
		Symbol string `json:"s"`
		Kline  struct {
			OpenTime  int64  `json:"t"`
			CloseTime int64  `json:"T"`
			Open      string `json:"o"`
			High      string `json:"h"`
			Low       string `json:"l"`
			Close     string `json:"c"`
			Volume    string `json:"v"`
			Closed    bool   `json:"x"`
		} `json:"k"`
	} `json:"data"`
}

// Run reads klines until the context ends, reconnecting on errors.
func (w *Warmer) Run(ctx context.Context) {
	for {
		if err := w.Connect(ctx); err != nil {
			w.logger.Warn("binance stream dial failed", applogger.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.reconnectDelay):
				continue
			}
		}

		w.readLoop(ctx)
		_ = w.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.reconnectDelay):
		}
	}
}

// readLoop reads frames from the current connection until it fails. The
// ping loop's lifetime is tied to this connection: readLoop does not
// return until its pinger has exited, so a reconnect never stacks a
// second writer on the same conn.
func (w *Warmer) readLoop(ctx context.Context) {
	conn := w.current()
	if conn == nil {
		return
	}

	pairBySymbol := make(map[string]string, len(w.pairs))
	for _, p := range w.pairs {
		pairBySymbol[strings.ToUpper(strings.ReplaceAll(p, "/", ""))] = p
	}

	connCtx, cancel := context.WithCancel(ctx)
	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		w.pingLoop(connCtx, conn)
	}()
	defer func() {
		cancel()
		<-pingDone
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			w.logger.Warn("binance stream read failed", applogger.Error(err))
			return
		}

		var ev klineEvent
		if err := json.Unmarshal(b, &ev); err != nil {
			continue // non-kline frame
		}
		k := ev.Data.Kline
		if !k.Closed {
			continue
		}

		pair, ok := pairBySymbol[ev.Data.Symbol]
		if !ok {
			continue
		}

		candle, err := parseKline(k.OpenTime, k.CloseTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			w.logger.Warn("binance stream kline parse failed", applogger.Error(err))
			continue
		}

		if err := w.archive.Append(ctx, pair, repository.TF1m, []models.Candle{candle}); err != nil {
			w.logger.Warn("candle archive append failed",
				applogger.String("pair", pair),
				applogger.Error(err),
			)
		}
	}
}

// pingLoop pings the given connection until its context ends. Pings use
// WriteControl, which is safe alongside readLoop's concurrent reads.
func (w *Warmer) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
	}
}

// Close closes the stream connection.
func (w *Warmer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

func parseKline(openTime, closeTime int64, open, high, low, closeP, volume string) (models.Candle, error) {
	c := models.Candle{OpenTime: openTime, CloseTime: closeTime}
	fields := []struct {
		raw string
		dst *float64
	}{
		{open, &c.Open}, {high, &c.High}, {low, &c.Low}, {closeP, &c.Close}, {volume, &c.Volume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return c, err
		}
		*f.dst = v
	}
	return c, nil
}
