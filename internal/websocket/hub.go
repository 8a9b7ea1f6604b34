package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/repositories"
	"github.com/hrdiansyah/serena/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Maximum time one listening window may stay open.
	utteranceTimeout = 2 * time.Minute

	defaultSampleRate = 16000
	defaultEncoding   = "LINEAR16"
	defaultLanguage   = "en-US"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Devices connect from private networks; tokens gate access.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active device clients. Each client carries one
// conversation session that lives as long as the connection.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	conversations *usecase.ConversationService
	sttRepo       repositories.SpeechToText
	ttsRepo       repositories.TextToSpeech

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	conversations *usecase.ConversationService,
	sttRepo repositories.SpeechToText,
	ttsRepo repositories.TextToSpeech,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		conversations: conversations,
		sttRepo:       sttRepo,
		ttsRepo:       ttsRepo,
		logger:        logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.deviceID]; ok {
				delete(h.clients, client.deviceID)
				close(client.done)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))
		}
	}
}

// ActiveDevices returns the device IDs with a live connection.
func (h *Hub) ActiveDevices() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	devices := make([]string, 0, len(h.clients))
	for deviceID := range h.clients {
		devices = append(devices, deviceID)
	}
	return devices
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

	// Buffered channel of outbound messages. Never closed; done signals
	// disconnection instead, so concurrent senders cannot hit a closed
	// channel.
	send chan WriteData

	// Closed by the hub when the client unregisters.
	done chan struct{}

	deviceID string

	logger *zap.Logger

	// One conversation per connection.
	conversation *usecase.ActiveConversation
	sttStreaming repositories.SpeechToTextStreaming
	sttCancel    context.CancelFunc
	audioConfig  repositories.AudioConfig

	chunkCount     int
	listeningStart time.Time

	mutex sync.Mutex
}

// HandleWebSocket upgrades a pre-authenticated request and starts the
// conversation session for the device.
func HandleWebSocket(hub *Hub, c echo.Context, deviceID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	conversation, err := hub.conversations.StartSession(c.Request().Context())
	if err != nil {
		logger.Error("Failed to start conversation session",
			zap.String("deviceID", deviceID),
			zap.Error(err))
		conn.Close()
		return err
	}

	client := &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan WriteData, 256),
		done:         make(chan struct{}),
		deviceID:     deviceID,
		logger:       logger,
		conversation: conversation,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.finalize()
		c.hub.unregister <- c
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

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// finalize closes the conversation when the device disconnects. The result,
// reservation included, is logged; the transcript files are on disk either
// way.
func (c *Client) finalize() {
	c.mutex.Lock()
	conversation := c.conversation
	c.conversation = nil
	sttCancel := c.sttCancel
	c.sttCancel = nil
	c.sttStreaming = nil
	c.mutex.Unlock()

	if sttCancel != nil {
		sttCancel()
	}

	if conversation == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := conversation.Finish(ctx)
	if err != nil {
		c.logger.Error("Failed to finalize conversation",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		return
	}

	if result.Reservation != nil {
		c.logger.Info("Conversation produced a reservation",
			zap.String("deviceID", c.deviceID),
			zap.String("guest", result.Reservation.GuestName))
	} else {
		c.logger.Info("Conversation ended without a reservation",
			zap.String("deviceID", c.deviceID))
	}
}

// processMessage processes incoming control messages from the device
func (c *Client) processMessage(message []byte) {
	validated, err := NewMessageValidator().ValidateMessage(message)
	if err != nil {
		c.logger.Error("Failed to parse message", zap.Error(err))
		c.sendJSON(CreateErrorMessage("INVALID_MESSAGE", err.Error()))
		return
	}

	switch msg := validated.(type) {
	case *ListeningStartMessage:
		c.handleListeningStart(msg)
	case *ListeningEndMessage:
		c.handleListeningEnd()
	case *PingMessage:
		c.sendJSON(CreatePongMessage(msg.Data))
	}
}

// processBinaryAudioChunk handles binary audio data
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttStreaming == nil {
		c.logger.Warn("Received audio chunk outside a listening window",
			zap.String("deviceID", c.deviceID))
		return
	}

	c.chunkCount++

	if err := c.sttStreaming.Stream(data); err != nil {
		c.logger.Error("Failed to stream audio data",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		return
	}
}

// handleListeningStart opens a transcription stream for one utterance
func (c *Client) handleListeningStart(msg *ListeningStartMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttCancel != nil {
		c.sttCancel()
		c.sttCancel = nil
	}

	c.chunkCount = 0
	c.listeningStart = time.Now()

	c.audioConfig = repositories.AudioConfig{
		SampleRate: defaultSampleRate,
		Encoding:   defaultEncoding,
		Language:   defaultLanguage,
	}
	if msg.SampleRate > 0 {
		c.audioConfig.SampleRate = msg.SampleRate
	}
	if msg.Encoding != "" {
		c.audioConfig.Encoding = msg.Encoding
	}
	if msg.Language != "" {
		c.audioConfig.Language = msg.Language
	}

	// The recognize stream has to outlive this handler: audio chunks keep
	// arriving until listening_end. Bound the whole utterance instead and
	// cancel once the transcription is collected.
	ctx, cancel := context.WithTimeout(context.Background(), utteranceTimeout)

	stream, err := c.hub.sttRepo.InitTranscribeStreaming(ctx, c.audioConfig)
	if err != nil {
		cancel()
		c.logger.Error("Failed to initialize streaming transcription",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("STT_INIT_FAILED", "failed to initialize transcription"))
		return
	}
	c.sttStreaming = stream
	c.sttCancel = cancel

	c.logger.Info("Listening started",
		zap.String("deviceID", c.deviceID),
		zap.Int("sampleRate", c.audioConfig.SampleRate))

	c.sendJSON(&BaseMessage{
		Type:      MessageTypeListeningStart,
		Timestamp: c.listeningStart.Format(time.RFC3339),
	})
}

// handleListeningEnd closes the utterance and hands it to the conversation
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	stream := c.sttStreaming
	c.sttStreaming = nil
	cancel := c.sttCancel
	c.sttCancel = nil
	chunks := c.chunkCount
	c.mutex.Unlock()

	if cancel != nil {
		defer cancel()
	}

	if stream == nil {
		c.sendJSON(CreateErrorMessage("NOT_LISTENING", "no active listening window"))
		return
	}

	transcription, err := stream.End()
	if err != nil {
		c.logger.Error("Failed to end transcription stream",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("STT_FAILED", "failed to end transcription"))
		return
	}

	c.logger.Info("Transcription completed",
		zap.String("deviceID", c.deviceID),
		zap.Int("chunks", chunks),
		zap.String("transcription", transcription))

	c.sendJSON(&BaseMessage{
		Type:      MessageTypeListeningEnd,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	go c.respondAudio(transcription)
}

// respondAudio runs one conversation turn and speaks the reply back.
func (c *Client) respondAudio(transcription string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c.mutex.Lock()
	conversation := c.conversation
	c.mutex.Unlock()
	if conversation == nil {
		return
	}

	reply, err := conversation.Converse(ctx, transcription)
	if err != nil {
		c.logger.Error("Conversation turn failed",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("DIALOGUE_FAILED", "failed to generate reply"))
		return
	}

	if c.hub.ttsRepo == nil {
		// Synthesis not configured; the device still gets the reply text.
		c.sendJSON(CreateSpeakingStartMessage(reply))
		c.sendJSON(CreateSpeakingEndMessage())
		return
	}

	audioChan, err := c.hub.ttsRepo.ConvertTextToSpeech(ctx, reply)
	if err != nil {
		c.logger.Error("Failed to convert text to speech",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("TTS_FAILED", "failed to synthesize reply"))
		return
	}

	c.sendJSON(CreateSpeakingStartMessage(reply))
	delivered := true
	for audioData := range audioChan {
		// Keep draining the synthesis channel even after a disconnect so
		// the producer goroutine can finish.
		if !delivered {
			continue
		}
		delivered = c.deliver(WriteData{
			Type:    websocket.BinaryMessage,
			Payload: audioData,
		})
	}
	c.sendJSON(CreateSpeakingEndMessage())
}

// deliver queues one outbound message, giving up when the client has
// disconnected. Reports whether the message was queued.
func (c *Client) deliver(message WriteData) bool {
	select {
	case c.send <- message:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) sendJSON(message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	case <-c.done:
	default:
		c.logger.Warn("Send buffer full, dropping message",
			zap.String("deviceID", c.deviceID))
	}
}
