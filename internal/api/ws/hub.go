package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
	"github.com/GriffinCanCode/docbridge/internal/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// ErrNoHost is returned when no picker host is connected.
var ErrNoHost = errors.New("no picker host connected")

// Hub keeps the picker host connections. Requests go to the most recently
// connected host; results from any host are handed to the bound ResultHandler.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu      sync.RWMutex
	hosts   []*host
	results picker.ResultHandler
}

type host struct {
	conn *websocket.Conn
	send chan types.PickerMessage
	done chan struct{}
	once sync.Once
}

func (h *host) close() {
	h.once.Do(func() { close(h.done) })
}

// NewHub creates a hub. A nil checkOrigin accepts same-origin requests only.
func NewHub(logger *zap.Logger, metrics *monitoring.Metrics, checkOrigin func(*http.Request) bool) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:   logger.Named("picker-hub"),
		metrics:  metrics,
	}
}

// Bind sets the receiver of picker results
func (h *Hub) Bind(results picker.ResultHandler) {
	h.mu.Lock()
	h.results = results
	h.mu.Unlock()
}

// Connected reports the number of connected hosts
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.hosts)
}

// Launch implements picker.Launcher
func (h *Hub) Launch(ctx context.Context, req picker.Request) error {
	return h.deliver(ctx, types.PickerMessage{
		Type:          "launch",
		RequestCode:   req.RequestCode,
		Action:        string(req.Action),
		InitialURI:    req.InitialURI,
		Title:         req.Title,
		MimeTypes:     req.MimeTypes,
		SuggestedName: req.SuggestedName,
		Flags:         int(req.Flags),
	})
}

// View implements picker.Launcher
func (h *Hub) View(ctx context.Context, req picker.ViewRequest) error {
	return h.deliver(ctx, types.PickerMessage{
		Type:     "view",
		URI:      req.URI,
		MimeType: req.MimeType,
		Title:    req.Title,
	})
}

func (h *Hub) deliver(ctx context.Context, msg types.PickerMessage) error {
	h.mu.RLock()
	var target *host
	if n := len(h.hosts); n > 0 {
		target = h.hosts[n-1]
	}
	h.mu.RUnlock()

	if target == nil {
		return ErrNoHost
	}

	select {
	case target.send <- msg:
		return nil
	case <-target.done:
		return ErrNoHost
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleConnection upgrades the request and serves one picker host
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	hs := &host{
		conn: conn,
		send: make(chan types.PickerMessage, sendBuffer),
		done: make(chan struct{}),
	}
	h.add(hs)
	h.logger.Info("picker host connected", zap.String("remote", c.ClientIP()))

	go h.writeLoop(hs)
	h.readLoop(hs)

	h.remove(hs)
	h.logger.Info("picker host disconnected", zap.String("remote", c.ClientIP()))
}

func (h *Hub) add(hs *host) {
	h.mu.Lock()
	h.hosts = append(h.hosts, hs)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncHostConnections()
	}
}

func (h *Hub) remove(hs *host) {
	hs.close()
	h.mu.Lock()
	for i, cur := range h.hosts {
		if cur == hs {
			h.hosts = append(h.hosts[:i], h.hosts[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.DecHostConnections()
	}
}

func (h *Hub) readLoop(hs *host) {
	defer hs.conn.Close()

	hs.conn.SetReadLimit(utils.MaxControlSize)
	_ = hs.conn.SetReadDeadline(time.Now().Add(pongWait))
	hs.conn.SetPongHandler(func(string) error {
		return hs.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg types.PickerMessage
		if err := hs.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.record("in", msg.Type)

		switch msg.Type {
		case "result":
			h.mu.RLock()
			results := h.results
			h.mu.RUnlock()
			if results == nil {
				h.logger.Warn("picker result without handler", zap.Int64("request_code", msg.RequestCode))
				continue
			}
			results.OnPickerResult(picker.Result{
				RequestCode: msg.RequestCode,
				OK:          msg.OK,
				URI:         msg.URI,
				Flags:       picker.Flags(msg.Flags),
			})
		case "ping":
			h.enqueue(hs, types.PickerMessage{Type: "pong"})
		default:
			h.enqueue(hs, types.PickerMessage{Type: "error", Message: "unknown message type"})
		}
	}
}

func (h *Hub) enqueue(hs *host, msg types.PickerMessage) {
	select {
	case hs.send <- msg:
	case <-hs.done:
	default:
		h.logger.Warn("picker host send buffer full", zap.String("type", msg.Type))
	}
}

func (h *Hub) writeLoop(hs *host) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		hs.conn.Close()
	}()

	for {
		select {
		case msg := <-hs.send:
			_ = hs.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := hs.conn.WriteJSON(msg); err != nil {
				h.logger.Warn("WebSocket write error", zap.Error(err))
				hs.close()
				return
			}
			h.record("out", msg.Type)
		case <-ticker.C:
			if err := hs.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				hs.close()
				return
			}
		case <-hs.done:
			return
		}
	}
}

func (h *Hub) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
