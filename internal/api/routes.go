package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/domain/entities"
	"github.com/hrdiansyah/serena/domain/repositories"
	"github.com/hrdiansyah/serena/internal/auth"
	"github.com/hrdiansyah/serena/internal/websocket"
	"github.com/hrdiansyah/serena/usecase"
)

// ConversationRunner drives one complete reservation conversation.
type ConversationRunner interface {
	Run(ctx context.Context) (*usecase.ConversationResult, error)
}

// ReservationSyncer uploads locally captured reservations.
type ReservationSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// ReservationLister reads reservations from the hosted database.
type ReservationLister interface {
	List(ctx context.Context) ([]entities.ReservationRecord, error)
}

// Deps bundles what the route handlers need.
type Deps struct {
	Hub           *websocket.Hub
	Devices       repositories.DeviceRepository
	Auth          *auth.Authenticator
	Conversations ConversationRunner
	Reservations  ReservationSyncer
	Lister        ReservationLister
	Logger        *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Deps) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "serena-server",
		})
	})

	v1 := e.Group("/api/v1")

	v1.POST("/device/auth", func(c echo.Context) error {
		return deviceAuth(c, deps)
	})

	v1.POST("/conversations", func(c echo.Context) error {
		return runConversation(c, deps)
	})

	v1.POST("/reservations/sync", func(c echo.Context) error {
		return syncReservations(c, deps)
	})

	v1.GET("/reservations", func(c echo.Context) error {
		return listReservations(c, deps)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(c, deps)
	})
}

func deviceAuth(c echo.Context, deps Deps) error {
	var req DeviceAuthRequest
	if err := c.Bind(&req); err != nil {
		deps.Logger.Error("Failed to bind device auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SerialNumber == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Serial number and secret key are required",
		})
	}

	device, err := deps.Devices.ValidateDevice(req.SerialNumber, req.SecretKey)
	if err != nil {
		deps.Logger.Warn("Device authentication failed",
			zap.String("serial_number", req.SerialNumber),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	token, err := deps.Auth.GenerateDeviceToken(device.ID)
	if err != nil {
		deps.Logger.Error("Failed to generate device token",
			zap.String("device_id", device.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	deps.Logger.Info("Device authenticated successfully",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		DeviceID:  device.ID,
	})
}

// runConversation drives one full reservation conversation and reports the
// extracted record. A session where the guest never spoke yields no content.
func runConversation(c echo.Context, deps Deps) error {
	result, err := deps.Conversations.Run(c.Request().Context())
	if err != nil {
		deps.Logger.Error("Conversation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "conversation_failed",
			Message: err.Error(),
		})
	}

	if result.Reservation == nil {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, ConversationResponse{
		Reservation:    result.Reservation,
		TranscriptFile: result.TranscriptPath,
		BilingualFile:  result.BilingualPath,
		JSONFile:       result.JSONPath,
	})
}

func syncReservations(c echo.Context, deps Deps) error {
	inserted, err := deps.Reservations.Sync(c.Request().Context())
	if err != nil {
		deps.Logger.Error("Reservation sync failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "sync_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, SyncResponse{
		Status:          "success",
		InsertedRecords: inserted,
	})
}

func listReservations(c echo.Context, deps Deps) error {
	records, err := deps.Lister.List(c.Request().Context())
	if err != nil {
		deps.Logger.Error("Failed to list reservations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, records)
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(c echo.Context, deps Deps) error {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}

	if token == "" {
		deps.Logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := deps.Auth.ValidateToken(token)
	if err != nil {
		deps.Logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != "device" {
		deps.Logger.Warn("WebSocket connection rejected: invalid role",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only device tokens are allowed for WebSocket connections",
		})
	}

	if claims.DeviceID == "" {
		deps.Logger.Error("WebSocket connection rejected: missing device ID in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Device ID not found in token",
		})
	}

	deps.Logger.Info("WebSocket connection authenticated",
		zap.String("device_id", claims.DeviceID))

	return websocket.HandleWebSocket(deps.Hub, c, claims.DeviceID, deps.Logger)
}
