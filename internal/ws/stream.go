package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/forkcast/forkcast-api/internal/logger"
	"github.com/forkcast/forkcast-api/internal/models"
	"github.com/forkcast/forkcast-api/internal/search"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket message types for the search stream protocol.
const (
	MsgTypeStateUpdate     = "state_update"      // Full session state snapshot
	MsgTypeStartCitySearch = "start_city_search" // Begin a city/category search
	MsgTypeStartGPSSearch  = "start_gps_search"  // Begin a position-based search
	MsgTypeUpdateCriteria  = "update_criteria"   // Partial criteria update
	MsgTypeGetState        = "get_state"         // Request a snapshot
	MsgTypeError           = "error"             // Error message
	MsgTypeConnected       = "connected"         // Connection confirmed
)

// WSMessage is the envelope for all messages sent over the search stream.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UpdateCriteriaPayload is a partial criteria update sent by the client.
// Absent fields are left untouched.
type UpdateCriteriaPayload struct {
	City     *models.City `json:"city,omitempty"`
	Category *string      `json:"category,omitempty"`
	FreeText *string      `json:"free_text,omitempty"`
}

// ErrorPayload carries an error message to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ConnectedPayload confirms a successful connection.
type ConnectedPayload struct {
	SessionID string `json:"session_id"`
}

// StreamHandler manages WebSocket connections for the live search stream.
// Every phase change and progress tick of a client's session is pushed to
// all of that client's connected devices.
type StreamHandler struct {
	Hub       *Hub
	JwtSecret string
	Manager   *search.Manager

	mu     sync.Mutex
	relays map[string]bool // sessionID -> relay goroutine running
}

// NewStreamHandler returns a new StreamHandler.
func NewStreamHandler(hub *Hub, jwtSecret string, manager *search.Manager) *StreamHandler {
	return &StreamHandler{
		Hub:       hub,
		JwtSecret: jwtSecret,
		Manager:   manager,
		relays:    make(map[string]bool),
	}
}

// upgrader is configured for search stream WebSocket upgrades.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		switch origin {
		case "https://forkcast.ge",
			"https://www.forkcast.ge",
			"https://api.forkcast.ge":
			return true
		}
		// Allow localhost for development
		if strings.HasPrefix(origin, "http://localhost:") || origin == "http://localhost" {
			return true
		}
		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleSearchStream upgrades an HTTP request to a WebSocket connection for
// the live search state stream. Authentication is done via a "token" query
// parameter because WebSocket connections cannot easily use Authorization
// headers.
func (sh *StreamHandler) HandleSearchStream(c *gin.Context) {
	log := logger.Get()

	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "token query parameter is required"})
		return
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(sh.JwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
		return
	}

	// Ensure this is an access token
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token type"})
		return
	}

	clientID, ok := claims["client_id"].(string)
	if !ok || clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid client_id in token"})
		return
	}

	// Upgrade to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed",
			zap.String("session_id", clientID),
			zap.Error(err),
		)
		return
	}

	// Create client and register with hub
	client := &Client{
		Hub:       sh.Hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: clientID,
	}
	sh.Hub.Register <- client

	orch := sh.Manager.Session(clientID)
	sh.ensureRelay(clientID, orch)

	// Send connected confirmation and the current snapshot
	connectedPayload, _ := json.Marshal(ConnectedPayload{SessionID: clientID})
	connectedMsg, _ := json.Marshal(WSMessage{
		Type:    MsgTypeConnected,
		Payload: connectedPayload,
	})
	client.Send <- connectedMsg
	sh.sendState(client, orch.State())

	log.Info("search stream started",
		zap.String("session_id", clientID),
	)

	// Start read and write pumps
	go client.WritePump()
	go client.ReadPump(func(cl *Client, data []byte) {
		sh.handleMessage(cl, orch, data)
	})
}

// ensureRelay starts, at most once per session, a goroutine that forwards
// orchestrator snapshots to every connection of the session. The relay
// winds down after the last connection of the session is gone.
func (sh *StreamHandler) ensureRelay(sessionID string, orch *search.Orchestrator) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.relays[sessionID] {
		return
	}
	sh.relays[sessionID] = true

	states, unsubscribe := orch.Subscribe()
	go func() {
		defer func() {
			unsubscribe()
			sh.mu.Lock()
			delete(sh.relays, sessionID)
			sh.mu.Unlock()
		}()

		for state := range states {
			if !sh.Hub.SessionActive(sessionID) {
				return
			}
			payload, err := json.Marshal(state)
			if err != nil {
				continue
			}
			msg, _ := json.Marshal(WSMessage{
				Type:    MsgTypeStateUpdate,
				Payload: payload,
			})
			sh.Hub.Broadcast <- &SessionMessage{
				SessionID: sessionID,
				Message:   msg,
			}
		}
	}()
}

// handleMessage parses an incoming WebSocket message and routes it to the
// appropriate handler.
func (sh *StreamHandler) handleMessage(client *Client, orch *search.Orchestrator, data []byte) {
	log := logger.Get()

	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sh.sendError(client, "invalid message format")
		return
	}

	log.Debug("received ws message",
		zap.String("type", msg.Type),
		zap.String("session_id", client.SessionID),
	)

	switch msg.Type {
	case MsgTypeStartCitySearch:
		orch.StartCitySearch()

	case MsgTypeStartGPSSearch:
		orch.StartGPSSearch()

	case MsgTypeUpdateCriteria:
		var payload UpdateCriteriaPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			sh.sendError(client, "invalid criteria payload")
			return
		}
		orch.UpdateCriteria(search.CriteriaUpdate{
			City:     payload.City,
			Category: payload.Category,
			FreeText: payload.FreeText,
		})

	case MsgTypeGetState:
		sh.sendState(client, orch.State())

	default:
		sh.sendError(client, "unknown message type: "+msg.Type)
	}
}

// sendState sends a state snapshot to a single client.
func (sh *StreamHandler) sendState(client *Client, state models.SearchState) {
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	msg, _ := json.Marshal(WSMessage{
		Type:    MsgTypeStateUpdate,
		Payload: payload,
	})
	client.Send <- msg
}

// sendError sends an error message to a single client.
func (sh *StreamHandler) sendError(client *Client, message string) {
	errPayload, _ := json.Marshal(ErrorPayload{
		Message: message,
	})
	errMsg, _ := json.Marshal(WSMessage{
		Type:    MsgTypeError,
		Payload: errPayload,
	})
	client.Send <- errMsg
}
