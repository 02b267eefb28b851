package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain"
	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
	"github.com/satriahrh/mentalhs/server/internal/auth"
	"github.com/satriahrh/mentalhs/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks and camera frames

	// Pending turns and scans per connection.
	taskQueueSize = 16

	defaultSampleRate = 16000
	defaultEncoding   = "LINEAR16"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients grouped by session
type Hub struct {
	// Registered clients, keyed by session id.
	clients map[string]map[*Client]struct{}

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	chat      *usecase.ChatService
	stt       repositories.SpeechToText
	tokens    *auth.Manager
	validator *MessageValidator

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. stt may be nil when voice input is not wired.
func NewHub(
	chat *usecase.ChatService,
	stt repositories.SpeechToText,
	tokens *auth.Manager,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		chat:       chat,
		stt:        stt,
		tokens:     tokens,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.sessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.sessionID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.sessionID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					client.close()
				}
				if len(set) == 0 {
					delete(h.clients, client.sessionID)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))

		case <-ctx.Done():
			h.mu.Lock()
			for id, set := range h.clients {
				for client := range set {
					client.close()
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast sends a message to every client attached to a session
func (h *Hub) Broadcast(sessionID string, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		client.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
	}
}

// ClientCount returns the number of clients attached to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send      chan WriteData
	closeOnce sync.Once
	closed    chan struct{}

	// Session this connection is bound to
	sessionID string

	// Turns and scans run in order on their own goroutine
	tasks chan func()

	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger

	mutex          sync.Mutex
	sttStreaming   repositories.SpeechToTextStreaming
	chunkCount     int
	listeningStart time.Time
	detecting      bool
}

// HandleWebSocket authenticates the session token and upgrades the connection.
// The token comes from the Authorization header or the token query parameter.
func HandleWebSocket(hub *Hub, c echo.Context) error {
	token, ok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		token = c.QueryParam("token")
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	claims, err := hub.tokens.ValidateToken(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	session, err := hub.chat.GetSession(c.Request().Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return err
	}
	if session.IsExpired() {
		return echo.NewHTTPError(http.StatusGone, "session is no longer active")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	hub.serve(conn, claims.SessionID)
	return nil
}

func (h *Hub) serve(conn *websocket.Conn, sessionID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan WriteData, 256),
		closed:    make(chan struct{}),
		sessionID: sessionID,
		tasks:     make(chan func(), taskQueueSize),
		ctx:       ctx,
		cancel:    cancel,
		logger:    h.logger.With(zap.String("sessionID", sessionID)),
	}

	select {
	case h.register <- client:
	case <-h.done:
		h.logger.Warn("Hub stopped, rejecting connection")
		cancel()
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.runTasks()
	go client.readPump()

	return client
}

// close stops the client's goroutines. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.closed)
	})
}

// enqueue queues an outbound message. It drops the message when the client
// is gone or its queue is full.
func (c *Client) enqueue(data WriteData) {
	select {
	case <-c.closed:
	case c.send <- data:
	default:
		c.logger.Warn("Outbound queue full, dropping message")
	}
}

func (c *Client) sendJSON(message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.Error(err))
		return
	}
	c.enqueue(WriteData{Type: websocket.TextMessage, Payload: payload})
}

func (c *Client) sendError(code, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	c.sendJSON(CreateErrorMessage(code, message, details))
}

func (c *Client) sendNotices(notices []domain.Notice) {
	for _, notice := range notices {
		c.sendJSON(CreateNoticeMessage(notice))
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.stopListening()
		select {
		case c.hub.unregister <- c:
		case <-c.closed:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// runTasks executes queued turns one at a time
func (c *Client) runTasks() {
	for {
		select {
		case <-c.closed:
			return
		case task := <-c.tasks:
			task()
		}
	}
}

func (c *Client) schedule(task func()) {
	select {
	case c.tasks <- task:
	default:
		c.sendError(ErrorCodeBusy, "too many pending requests", nil)
	}
}

// processMessage processes incoming control and chat messages
func (c *Client) processMessage(message []byte) {
	parsed, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected message", zap.Error(err))
		c.sendError(ErrorCodeInvalidMessage, "invalid message", err)
		return
	}

	switch msg := parsed.(type) {
	case *SendMessageMessage:
		c.schedule(func() { c.handleSendMessage(msg) })
	case *ListeningStartMessage:
		c.handleListeningStart(msg)
	case *FaceFrameMessage:
		c.handleFaceFrame(msg)
	case *PingMessage:
		c.sendJSON(CreatePongMessage(msg.Data))
	case *BaseMessage:
		switch msg.Type {
		case MessageTypeListeningEnd:
			c.handleListeningEnd()
		case MessageTypeFaceDetectionStart:
			c.setDetecting(true)
		case MessageTypeFaceDetectionStop:
			c.setDetecting(false)
		case MessageTypeScanRequest:
			c.schedule(c.handleScanRequest)
		}
	}
}

func (c *Client) handleSendMessage(msg *SendMessageMessage) {
	turn, err := c.hub.chat.SendMessage(c.ctx, c.sessionID, msg.Content)
	if err != nil {
		c.sendChatError(err)
		return
	}
	c.hub.Broadcast(c.sessionID, CreateTurnResultMessage(c.sessionID, turn))
}

func (c *Client) sendChatError(err error) {
	switch {
	case errors.Is(err, usecase.ErrEmptyMessage):
		c.sendError(ErrorCodeEmptyMessage, "message is empty", nil)
	case errors.Is(err, usecase.ErrSessionClosed):
		c.sendError(ErrorCodeSessionClosed, "session is no longer active", nil)
	case errors.Is(err, repositories.ErrSessionNotFound):
		c.sendError(ErrorCodeSessionNotFound, "session not found", nil)
	case errors.Is(err, usecase.ErrCapabilityUnavailable):
		c.sendError(ErrorCodeUnavailable, "capability unavailable", nil)
	case errors.Is(err, context.Canceled):
		// connection closed mid-turn
	default:
		c.logger.Error("Chat operation failed", zap.Error(err))
		c.sendError(ErrorCodeInternal, "internal error", err)
	}
}

func (c *Client) setDetecting(enabled bool) {
	c.mutex.Lock()
	c.detecting = enabled
	c.mutex.Unlock()

	if enabled {
		c.sendJSON(CreateNoticeMessage(domain.NoticeDetectionEnabled))
	} else {
		c.sendJSON(CreateNoticeMessage(domain.NoticeDetectionDisabled))
	}
}

func (c *Client) handleFaceFrame(msg *FaceFrameMessage) {
	c.mutex.Lock()
	detecting := c.detecting
	c.mutex.Unlock()

	if !detecting {
		c.logger.Debug("Dropping face frame while detection is disabled")
		return
	}

	c.schedule(func() {
		result, err := c.hub.chat.DetectFaceEmotion(c.ctx, c.sessionID, msg.Frame(), msg.Composing)
		if err != nil {
			c.sendChatError(err)
			return
		}

		c.sendJSON(&EmotionDetectedMessage{BaseMessage: newBase(MessageTypeEmotionDetected), Emotion: result.Emotion})
		c.sendNotices(result.Notices)
		if result.Turn != nil {
			c.hub.Broadcast(c.sessionID, CreateTurnResultMessage(c.sessionID, result.Turn))
		}
	})
}

func (c *Client) handleScanRequest() {
	if err := c.hub.chat.RequestScan(c.ctx, c.sessionID); err != nil {
		c.sendChatError(err)
	}
}

// processBinaryAudioChunk streams audio to the active listening session
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	stream := c.sttStreaming
	if stream != nil {
		c.chunkCount++
	}
	c.mutex.Unlock()

	if stream == nil {
		c.logger.Warn("Received audio chunk while not listening", zap.Int("size", len(data)))
		return
	}

	if err := stream.Stream(data); err != nil {
		c.logger.Error("Failed to stream audio data", zap.Error(err))
		c.stopListening()
		c.sendSpeechError(err)
	}
}

// handleListeningStart opens a speech session. A previous session is closed first.
func (c *Client) handleListeningStart(msg *ListeningStartMessage) {
	if c.hub.stt == nil {
		c.sendSpeechError(usecase.ErrCapabilityUnavailable)
		return
	}
	c.stopListening()

	language := msg.Language
	if language == "" {
		settings, err := c.hub.chat.Settings(c.ctx)
		if err != nil || settings.VoiceLanguage == "" {
			settings = entities.DefaultSettings()
		}
		language = settings.VoiceLanguage
	}

	audioConfig := repositories.AudioConfig{
		SampleRate: defaultSampleRate,
		Language:   language,
		Encoding:   defaultEncoding,
	}
	if msg.SampleRate > 0 {
		audioConfig.SampleRate = msg.SampleRate
	}
	if msg.Encoding != "" {
		audioConfig.Encoding = msg.Encoding
	}

	stream, err := c.hub.stt.InitTranscribeStreaming(c.ctx, audioConfig)
	if err != nil {
		c.logger.Error("Failed to initialize streaming transcription", zap.Error(err))
		c.sendSpeechError(err)
		return
	}

	c.mutex.Lock()
	c.sttStreaming = stream
	c.chunkCount = 0
	c.listeningStart = time.Now()
	c.mutex.Unlock()

	go c.forwardTranscripts(stream)

	notice := domain.ListeningNotice(language)
	c.sendJSON(&ListeningMessage{
		BaseMessage: newBase(MessageTypeListeningStart),
		SessionID:   c.sessionID,
		Language:    language,
		Notice:      &notice,
	})

	c.logger.Info("Listening started", zap.String("language", language))
}

// handleListeningEnd closes the speech session and returns the final text
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	stream := c.sttStreaming
	c.sttStreaming = nil
	chunks := c.chunkCount
	started := c.listeningStart
	c.mutex.Unlock()

	if stream == nil {
		c.sendError(ErrorCodeInvalidMessage, "not listening", nil)
		return
	}

	text, err := stream.End()
	if err != nil {
		c.logger.Warn("Failed to end transcription stream", zap.Error(err))
		c.sendSpeechError(err)
		return
	}

	c.logger.Info("Listening ended",
		zap.Int("chunks", chunks),
		zap.Duration("duration", time.Since(started)),
		zap.Int("transcriptLength", len(text)))

	c.sendJSON(&ListeningMessage{
		BaseMessage: newBase(MessageTypeListeningEnd),
		SessionID:   c.sessionID,
		Transcript:  text,
	})
}

// stopListening ends any active speech session without reporting it
func (c *Client) stopListening() {
	c.mutex.Lock()
	stream := c.sttStreaming
	c.sttStreaming = nil
	c.mutex.Unlock()

	if stream != nil {
		if _, err := stream.End(); err != nil {
			c.logger.Debug("Speech session ended with error", zap.Error(err))
		}
	}
}

func (c *Client) forwardTranscripts(stream repositories.SpeechToTextStreaming) {
	for transcript := range stream.Transcripts() {
		c.sendJSON(&TranscriptMessage{
			BaseMessage: newBase(MessageTypeTranscript),
			Text:        transcript.Text,
			IsFinal:     transcript.IsFinal,
		})
	}
}

func (c *Client) sendSpeechError(err error) {
	c.sendJSON(&SpeechErrorMessage{
		BaseMessage: newBase(MessageTypeSpeechError),
		Notice:      domain.SpeechErrorNotice(err.Error()),
	})
}
