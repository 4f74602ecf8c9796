package irisfast

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-chess/internal/obslog"
)

var ErrNotConnected = errors.New("ws not connected")

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// WebSocket receives Iris chat events and can write reply frames back.
// A dropped connection is redialed up to maxReconnectAttempts times.
type WebSocket struct {
	wsURL string

	mu            sync.Mutex
	conn          *websocket.Conn
	state         WebSocketState
	sessionCancel context.CancelFunc
	writeM        sync.Mutex

	msgCbs   []callbackEntry
	stateCbs []stateCallbackEntry
	nextID   int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	// optional: inject headers at handshake (e.g., X-User-*)
	headerProvider HeaderProvider
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration) *WebSocket {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	return &WebSocket{
		wsURL:                wsURL,
		state:                WSStateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
		rootCtx:              rootCtx,
		rootCancel:           rootCancel,
	}
}

// SetHeaderProvider allows injecting headers into the WS handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) {
	ws.headerProvider = h
}

func (ws *WebSocket) State() WebSocketState {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.state
}

func (ws *WebSocket) Connect(ctx context.Context) error {
	ws.mu.Lock()
	if ws.state == WSStateConnected || ws.state == WSStateConnecting {
		ws.mu.Unlock()
		return nil
	}
	ws.mu.Unlock()
	if ws.isStopping() {
		return ErrNotConnected
	}

	ws.setState(WSStateConnecting)
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := ws.dial(dialCtx)
	if err != nil {
		ws.setState(WSStateFailed)
		ws.scheduleReconnect()
		return err
	}
	ws.startSession(conn)
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	if err != nil {
		return nil, err
	}
	// board images are sent as base64 frames
	conn.SetReadLimit(8 << 20)
	return conn, nil
}

// startSession installs conn and starts its reader and pinger. A conn that
// arrives after Close has begun is closed instead.
func (ws *WebSocket) startSession(conn *websocket.Conn) {
	sessionCtx, cancel := context.WithCancel(ws.rootCtx)
	ws.mu.Lock()
	if ws.isStopping() {
		ws.mu.Unlock()
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		return
	}
	ws.conn = conn
	ws.sessionCancel = cancel
	ws.wg.Add(2)
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	go ws.listen(sessionCtx, conn)
	go ws.pingLoop(sessionCtx, conn)
}

// drop closes conn if it is still current. It reports whether it did.
func (ws *WebSocket) drop(conn *websocket.Conn, code websocket.StatusCode, reason string) bool {
	ws.mu.Lock()
	if ws.conn != conn || conn == nil {
		ws.mu.Unlock()
		return false
	}
	ws.conn = nil
	cancel := ws.sessionCancel
	ws.sessionCancel = nil
	ws.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	_ = conn.Close(code, reason)
	return true
}

func (ws *WebSocket) listen(ctx context.Context, conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ws.isStopping() {
				ws.drop(conn, websocket.StatusNormalClosure, "close")
				return
			}
			if ws.drop(conn, websocket.StatusGoingAway, "reconnect") {
				obslog.L().Warn("ws_read_error", zap.Error(err))
				ws.setState(WSStateDisconnected)
				ws.scheduleReconnect()
			}
			return
		}

		ws.cbM.RLock()
		callbacks := make([]callbackEntry, len(ws.msgCbs))
		copy(callbacks, ws.msgCbs)
		ws.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				m := msg
				entry.callback(&m)
			}
		}
	}
}

func (ws *WebSocket) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures < 2 || ws.isStopping() {
				continue
			}
			if ws.drop(conn, websocket.StatusGoingAway, "ping failure") {
				obslog.L().Warn("ws_ping_failure", zap.Error(err))
				ws.setState(WSStateDisconnected)
				ws.scheduleReconnect()
			}
			return
		}
	}
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnectAttempts <= 0 || ws.isStopping() {
		return
	}
	ws.setState(WSStateReconnecting)

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(ws.reconnectDelay * time.Duration(attempt)):
			}
			dialCtx, cancel := context.WithTimeout(ws.rootCtx, 10*time.Second)
			conn, err := ws.dial(dialCtx)
			cancel()
			if err != nil {
				obslog.L().Warn("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			ws.startSession(conn)
			return
		}
		ws.setState(WSStateFailed)
	}()
}

// WriteJSON sends v as one text frame. Writes are serialized.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
	ws.mu.Lock()
	conn, state := ws.conn, ws.state
	ws.mu.Unlock()
	if conn == nil || state != WSStateConnected {
		return ErrNotConnected
	}
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextID++
	ws.msgCbs = append(ws.msgCbs, callbackEntry{id: ws.nextID, callback: cb})
	return ws.nextID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.msgCbs {
		if cb.id == id {
			ws.msgCbs = append(ws.msgCbs[:i], ws.msgCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextID++
	ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextID, callback: cb})
	return ws.nextID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.stateCbs {
		if cb.id == id {
			ws.stateCbs = append(ws.stateCbs[:i], ws.stateCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) setState(state WebSocketState) {
	ws.mu.Lock()
	ws.state = state
	ws.mu.Unlock()

	ws.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
	copy(callbacks, ws.stateCbs)
	ws.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

// Close stops reconnecting, closes the connection and waits for the reader
// and ping goroutines.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })
	ws.mu.Lock()
	conn := ws.conn
	ws.mu.Unlock()
	ws.drop(conn, websocket.StatusNormalClosure, "close")
	// 진행 중 재연결이 연 세션도 함께 끝낸다
	ws.rootCancel()
	ws.setState(WSStateDisconnected)

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headerProvider == nil {
		return hdr
	}
	for k, v := range ws.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
