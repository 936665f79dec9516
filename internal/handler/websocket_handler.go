// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"epl2-service/internal/model"
	"epl2-service/internal/service"
	"epl2-service/internal/utils"
	"epl2-service/pkg/epl2"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// WebSocketHandler streams decode results and job events
type WebSocketHandler struct {
	upgrader          websocket.Upgrader
	connections       *ConnectionManager
	inspectionService *service.InspectionService
	eventBus          *EventBus
	events            <-chan model.JobEvent
	maxJobBytes       int64
	logger            *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler and starts forwarding
// bus events to connected event clients
func NewWebSocketHandler(
	inspectionService *service.InspectionService,
	eventBus *EventBus,
	allowedOrigins []string,
	maxJobBytes int64,
	logger *zap.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		connections:       NewConnectionManager(),
		inspectionService: inspectionService,
		eventBus:          eventBus,
		events:            eventBus.Subscribe(AllEvents),
		maxJobBytes:       maxJobBytes,
		logger:            utils.NewServiceLogger(logger, "websocket-handler"),
	}

	go h.pumpEvents()
	return h
}

// originChecker accepts requests without an Origin header and origins in the allow list
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/decode", h.HandleDecodeConnection)
	router.GET("/events", h.HandleEventConnection)
}

// Close stops event forwarding
func (h *WebSocketHandler) Close() {
	h.eventBus.Unsubscribe(h.events)
}

// HandleDecodeConnection streams the items of each job the client sends
// @Summary Streaming decode
// @Description Each binary or text message is decoded as one EPL2 job. The server answers with one "item" message per decoded item followed by a "done" message carrying the report.
// @Tags WebSocket
// @Router /ws/decode [get]
func (h *WebSocketHandler) HandleDecodeConnection(c *gin.Context) {
	client, ok := h.upgrade(c, ClientTypeDecode)
	if !ok {
		return
	}
	client.Connection.SetReadLimit(h.maxJobBytes)

	go h.handleClientWrite(client)
	go h.handleClientRead(client, h.handleDecodeMessage)
}

// HandleEventConnection delivers job events
// @Summary Job events
// @Description Streams JOB_INSPECTED, JOB_FORWARDED, JOB_FORWARD_FAILED and JOB_DELETED events. Send {"type":"subscribe","data":["JOB_FORWARDED"]} to filter.
// @Tags WebSocket
// @Router /ws/events [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	client, ok := h.upgrade(c, ClientTypeEvents)
	if !ok {
		return
	}
	client.Connection.SetReadLimit(64 * 1024)

	go h.handleClientWrite(client)
	go h.handleClientRead(client, h.handleEventClientMessage)
}

func (h *WebSocketHandler) upgrade(c *gin.Context, clientType string) (*Client, bool) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return nil, false
	}

	client := newClient(conn, uuid.New().String(), clientType, c.Request.UserAgent(), c.Request.RemoteAddr)
	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("type", clientType),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendMessage(client, "welcome", gin.H{"client_id": client.ID, "type": clientType})
	return client, true
}

// handleClientRead reads messages until the connection fails
func (h *WebSocketHandler) handleClientRead(client *Client, handle func(*Client, int, []byte)) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Debug("WebSocket client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))
		handle(client, messageType, data)
	}
}

// handleClientWrite drains the client's queue and keeps the connection alive
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.markClosed()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warn("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleDecodeMessage decodes one job and streams its items
func (h *WebSocketHandler) handleDecodeMessage(client *Client, messageType int, data []byte) {
	if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
		return
	}
	if err := h.inspectionService.CheckSize(len(data)); err != nil {
		h.sendError(client, err.Error())
		return
	}

	requestID := uuid.New().String()
	streaming := true
	analysis := service.AnalyzeStream(data, h.inspectionService.Policy(), h.inspectionService.DPI(), func(item epl2.Item) {
		if streaming {
			streaming = h.queueMessage(client, &WebSocketMessage{
				Type:      "item",
				Data:      NewItemView(item),
				Timestamp: time.Now(),
				RequestID: requestID,
			})
		}
	})
	if !streaming {
		return
	}

	h.queueMessage(client, &WebSocketMessage{
		Type: "done",
		Data: DecodeResponse{
			Status: analysis.Status(),
			Report: analysis.Report,
		},
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

// handleEventClientMessage handles subscription changes and pings
func (h *WebSocketHandler) handleEventClientMessage(client *Client, _ int, data []byte) {
	var message struct {
		Type string            `json:"type"`
		Data []model.EventType `json:"data"`
	}
	if err := json.Unmarshal(data, &message); err != nil {
		h.sendError(client, "invalid message")
		return
	}

	switch message.Type {
	case "subscribe":
		h.sendMessage(client, "subscribed", client.Subscribe(message.Data, true))
	case "unsubscribe":
		h.sendMessage(client, "subscribed", client.Subscribe(message.Data, false))
	case "ping":
		h.sendMessage(client, "pong", nil)
	default:
		h.sendError(client, "unknown message type: "+message.Type)
	}
}

// pumpEvents forwards bus events to event clients
func (h *WebSocketHandler) pumpEvents() {
	for event := range h.events {
		msg, err := json.Marshal(&WebSocketMessage{
			Type:      "event",
			Data:      event,
			Timestamp: time.Now(),
		})
		if err != nil {
			h.logger.Error("Failed to marshal event", zap.Error(err))
			continue
		}
		h.connections.Broadcast(ClientTypeEvents, msg, func(c *Client) bool {
			return c.Wants(event.EventType)
		})
	}
}

// queueMessage blocks until the writer accepts the message
func (h *WebSocketHandler) queueMessage(client *Client, message *WebSocketMessage) bool {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return false
	}
	return client.queue(data)
}

func (h *WebSocketHandler) sendMessage(client *Client, messageType string, data interface{}) {
	h.queueMessage(client, &WebSocketMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, "error", gin.H{"message": errorMsg})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
