// Package transport provides the reference implementation of the
// engine's Transport contract: a persistent, reconnecting WebSocket
// connection to the broker, adapted from the teacher's multiplexed
// upstream RPC connection (internal/upstream/wsclient.go) but carrying
// subscribe/unsubscribe requests and status-category outcomes instead of
// eth_subscribe JSON-RPC framing.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"subscribecore/internal/subscribe"
)

var errNotConnected = errors.New("transport: not connected")

type pendingEntry struct {
	op       subscribe.Operation
	callback func(subscribe.Status)
}

// WSTransport implements subscribe.Transport over a single WebSocket
// connection that is dialed once and reconnected transparently on read
// failure, the way UpstreamWSClient is in the teacher.
type WSTransport struct {
	wsURL             string
	messageTimeout    time.Duration
	reconnectInterval time.Duration
	pingInterval      time.Duration
	logger            zerolog.Logger

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	pending   map[int64]pendingEntry
	pendingMu sync.Mutex
	reqID     int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a WSTransport that has not yet dialed the broker; call
// Connect to establish the connection and start its background loops.
func New(wsURL string, messageTimeout, reconnectInterval, pingInterval time.Duration, logger zerolog.Logger) *WSTransport {
	ctx, cancel := context.WithCancel(context.Background())
	return &WSTransport{
		wsURL:             wsURL,
		messageTimeout:    messageTimeout,
		reconnectInterval: reconnectInterval,
		pingInterval:      pingInterval,
		logger:            logger.With().Str("component", "ws-transport").Logger(),
		pending:           make(map[int64]pendingEntry),
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Connect dials the broker and starts the read and ping loops.
func (t *WSTransport) Connect(ctx context.Context) error {
	t.connMu.Lock()
	if t.conn != nil {
		t.connMu.Unlock()
		return nil
	}
	t.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, t.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	t.connMu.Lock()
	t.conn = conn
	t.connMu.Unlock()

	t.setPongHandler(conn)
	t.logger.Info().Str("url", t.wsURL).Msg("transport connected")

	t.wg.Add(1)
	go t.readLoop()
	if t.pingInterval > 0 {
		t.wg.Add(1)
		go t.pingLoop()
	}
	return nil
}

func (t *WSTransport) setPongHandler(conn *websocket.Conn) {
	readTimeout := t.messageTimeout
	if readTimeout == 0 {
		readTimeout = 60 * time.Second
	}
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
}

func (t *WSTransport) pingLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			conn := t.getConn()
			if conn == nil {
				return
			}
			t.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			t.writeMu.Unlock()
			if err != nil {
				t.logger.Debug().Err(err).Msg("ping write failed")
				return
			}
		}
	}
}

func (t *WSTransport) getConn() *websocket.Conn {
	t.connMu.RLock()
	defer t.connMu.RUnlock()
	return t.conn
}

// Process sends one subscribe/unsubscribe request and arranges for
// callback to fire exactly once: on the matching response, on a local
// write failure, or on ctx cancellation (reported as Cancelled).
func (t *WSTransport) Process(ctx context.Context, op subscribe.Operation, params subscribe.RequestParams, isInitial bool, callback func(subscribe.Status)) {
	reqID := atomic.AddInt64(&t.reqID, 1)

	data, err := json.Marshal(toWireRequest(reqID, op, params))
	if err != nil {
		callback(subscribe.Status{Operation: op, IsError: true, Category: subscribe.CategoryMalformedResponse, Err: err})
		return
	}

	conn := t.getConn()
	if conn == nil {
		callback(subscribe.Status{Operation: op, IsError: true, Category: subscribe.CategoryTimeout, Err: errNotConnected})
		return
	}

	t.pendingMu.Lock()
	t.pending[reqID] = pendingEntry{op: op, callback: callback}
	t.pendingMu.Unlock()

	t.writeMu.Lock()
	writeErr := conn.WriteMessage(websocket.TextMessage, data)
	t.writeMu.Unlock()
	if writeErr != nil {
		if e, ok := t.takePending(reqID); ok {
			e.callback(subscribe.Status{Operation: op, IsError: true, Category: subscribe.CategoryTimeout, Err: writeErr})
		}
		return
	}

	go t.awaitCancellation(ctx, reqID)
}

func (t *WSTransport) awaitCancellation(ctx context.Context, reqID int64) {
	select {
	case <-ctx.Done():
	case <-t.ctx.Done():
	}
	if e, ok := t.takePending(reqID); ok {
		e.callback(subscribe.Status{Operation: e.op, Category: subscribe.CategoryCancelled})
	}
}

func (t *WSTransport) takePending(reqID int64) (pendingEntry, bool) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	e, ok := t.pending[reqID]
	if ok {
		delete(t.pending, reqID)
	}
	return e, ok
}

// CancelAll aborts every in-flight request, reporting Cancelled to each
// without attempting to read a response for it.
func (t *WSTransport) CancelAll() {
	t.pendingMu.Lock()
	cancelled := t.pending
	t.pending = make(map[int64]pendingEntry)
	t.pendingMu.Unlock()

	for _, e := range cancelled {
		e.callback(subscribe.Status{Operation: e.op, Category: subscribe.CategoryCancelled})
	}
}

// Close tears down the connection and stops the background loops.
func (t *WSTransport) Close() {
	t.cancel()
	t.connMu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.connMu.Unlock()
	t.CancelAll()
	t.wg.Wait()
}

func (t *WSTransport) readLoop() {
	defer t.wg.Done()

	readTimeout := t.messageTimeout
	if readTimeout == 0 {
		readTimeout = 60 * time.Second
	}

	for {
		select {
		case <-t.ctx.Done():
			return
		default:
		}

		conn := t.getConn()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-t.ctx.Done():
				return
			default:
			}
			t.logger.Warn().Err(err).Msg("transport connection lost, reconnecting")
			if t.reconnect() {
				continue
			}
			return
		}

		t.dispatch(data)
	}
}

func (t *WSTransport) dispatch(data []byte) {
	var resp wireResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.logger.Warn().Err(err).Int("len", len(data)).Msg("transport message parse error")
		return
	}

	e, ok := t.takePending(resp.RequestID)
	if !ok {
		return
	}
	e.callback(toStatus(e.op, resp))
}

func (t *WSTransport) reconnect() bool {
	t.connMu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.connMu.Unlock()

	t.CancelAll()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	interval := t.reconnectInterval
	if interval < 3*time.Second {
		interval = 3 * time.Second
	}

	for {
		select {
		case <-t.ctx.Done():
			return false
		case <-time.After(interval):
		}

		ctx, cancel := context.WithTimeout(t.ctx, 30*time.Second)
		conn, _, err := dialer.DialContext(ctx, t.wsURL, nil)
		cancel()
		if err != nil {
			t.logger.Warn().Err(err).Dur("nextRetry", interval).Msg("transport reconnect failed, will retry")
			continue
		}

		t.connMu.Lock()
		t.conn = conn
		t.connMu.Unlock()
		t.setPongHandler(conn)
		t.logger.Info().Msg("transport reconnected")
		return true
	}
}

func toWireRequest(reqID int64, op subscribe.Operation, params subscribe.RequestParams) wireRequest {
	opName := "subscribe"
	if op == subscribe.OpUnsubscribe {
		opName = "unsubscribe"
	}
	return wireRequest{
		RequestID:    reqID,
		Op:           opName,
		Channels:     params.Channels,
		ChannelGroup: params.ChannelGroup,
		TimeToken:    params.TimeToken,
		Region:       params.Region,
		Heartbeat:    params.Heartbeat,
		State:        params.State,
		FilterExpr:   params.FilterExpr,
		Extra:        params.Extra,
	}
}

func toStatus(op subscribe.Operation, resp wireResponse) subscribe.Status {
	if resp.ErrorCategory != "" {
		return subscribe.Status{Operation: op, IsError: true, Category: subscribe.Category(resp.ErrorCategory)}
	}

	events := make([]subscribe.WireEvent, len(resp.Events))
	for i, we := range resp.Events {
		events[i] = subscribe.WireEvent{
			Envelope:      subscribe.Envelope{MessageType: subscribe.MessageType(we.MessageType)},
			PresenceEvent: we.PresenceEvent,
			PresenceUUID:  we.PresenceUUID,
			Channel:       we.Channel,
			Subscription:  we.Subscription,
			Timetoken:     we.Timetoken,
			Publisher:     we.Publisher,
			Payload:       we.Payload,
			DecryptError:  we.DecryptError,
		}
	}

	return subscribe.Status{
		Operation: op,
		Category:  subscribe.CategoryAcknowledgment,
		ServiceData: &subscribe.ServiceData{
			Timetoken: resp.Timetoken,
			Region:    resp.Region,
			Events:    events,
		},
	}
}
