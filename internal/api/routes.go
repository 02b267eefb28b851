package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain"
	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
	"github.com/satriahrh/mentalhs/server/internal/auth"
	"github.com/satriahrh/mentalhs/server/internal/websocket"
	"github.com/satriahrh/mentalhs/server/usecase"
)

const sessionIDKey = "session_id"

// Dependencies wires the HTTP layer to the application
type Dependencies struct {
	Chat        *usecase.ChatService
	Credentials *usecase.CredentialValidator
	Translator  *usecase.Translator
	Tokens      *auth.Manager
	// Hub, when set, receives turns produced over HTTP so open sockets see them
	Hub    *websocket.Hub
	Logger *zap.Logger
}

type handlers struct {
	Dependencies
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies) {
	h := &handlers{Dependencies: deps}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "mentalhs-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/sessions", h.createSession)

	sessions := v1.Group("/sessions/:id", h.sessionAuth)
	sessions.GET("", h.getSession)
	sessions.POST("/messages", h.sendMessage)
	sessions.GET("/messages", h.getMessages)
	sessions.PUT("/personality", h.setPersonality)
	sessions.PUT("/offline", h.setOfflineMode)
	sessions.GET("/mood", h.getMood)
	sessions.GET("/journal", h.getJournal)
	sessions.POST("/journal", h.addJournalEntry)
	sessions.PUT("/journal/:entryID", h.updateJournalEntry)
	sessions.POST("/face-emotion", h.faceEmotion)
	sessions.POST("/scan", h.requestScan)

	// Settings and the model credential are shared by every session
	v1.GET("/settings", h.getSettings)
	v1.PUT("/settings", h.updateSettings, h.adminAuth)

	v1.GET("/credential", h.getCredential)
	v1.PUT("/credential", h.setCredential, h.adminAuth)
	v1.DELETE("/credential", h.clearCredential, h.adminAuth)

	v1.POST("/translate", h.translate)
	v1.GET("/personalities", func(c echo.Context) error {
		return c.JSON(http.StatusOK, entities.Personalities)
	})
	v1.GET("/crisis-resources", func(c echo.Context) error {
		return c.JSON(http.StatusOK, usecase.Resources())
	})

	// WebSocket endpoint with JWT validation
	if deps.Hub != nil {
		e.GET("/ws", func(c echo.Context) error {
			return websocket.HandleWebSocket(deps.Hub, c)
		})
	}
}

// sessionAuth requires a bearer token issued for the session in the path
func (h *handlers) sessionAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "JWT token is required in Authorization header",
			})
		}

		claims, err := h.Tokens.ValidateToken(token)
		if err != nil {
			h.Logger.Warn("Request rejected: invalid token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired JWT token",
			})
		}

		if claims.SessionID != c.Param("id") {
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "session_mismatch",
				Message: "Token was not issued for this session",
			})
		}

		c.Set(sessionIDKey, claims.SessionID)
		return next(c)
	}
}

// adminAuth requires the configured admin key as the bearer token
func (h *handlers) adminAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, ok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "Admin key is required in Authorization header",
			})
		}

		if err := h.Tokens.ValidateAdminKey(key); err != nil {
			if errors.Is(err, auth.ErrAdminDisabled) {
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "admin_disabled",
					Message: "Server-wide changes are disabled",
				})
			}
			h.Logger.Warn("Request rejected: invalid admin key", zap.String("path", c.Path()))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid admin key",
			})
		}
		return next(c)
	}
}

func sessionID(c echo.Context) string {
	id, _ := c.Get(sessionIDKey).(string)
	return id
}

func badRequest(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: code, Message: message})
}

// respondError maps application errors to HTTP responses
func (h *handlers) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repositories.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "session_not_found", Message: err.Error()})
	case errors.Is(err, usecase.ErrSessionClosed):
		return c.JSON(http.StatusGone, ErrorResponse{Error: "session_closed", Message: err.Error()})
	case errors.Is(err, usecase.ErrEmptyMessage):
		return badRequest(c, "empty_message", err.Error())
	case errors.Is(err, usecase.ErrInvalidPersonality):
		return badRequest(c, "invalid_personality", err.Error())
	case errors.Is(err, entities.ErrJournalEntryNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "journal_entry_not_found", Message: err.Error()})
	case errors.Is(err, usecase.ErrCapabilityUnavailable):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "capability_unavailable", Message: err.Error()})
	default:
		h.Logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
	}
}

func (h *handlers) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}

	result, err := h.Chat.CreateSession(c.Request().Context(), entities.Personality(strings.ToLower(strings.TrimSpace(req.Personality))))
	if err != nil {
		return h.respondError(c, err)
	}

	id := result.Session.ID.Hex()
	token, err := h.Tokens.GenerateSessionToken(id)
	if err != nil {
		h.Logger.Error("Failed to generate session token", zap.String("session_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusCreated, CreateSessionResponse{
		Session:   result.Session,
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		Notices:   result.Notices,
	})
}

func (h *handlers) getSession(c echo.Context) error {
	session, err := h.Chat.GetSession(c.Request().Context(), sessionID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *handlers) sendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}

	id := sessionID(c)
	turn, err := h.Chat.SendMessage(c.Request().Context(), id, req.Content)
	if err != nil {
		return h.respondError(c, err)
	}

	if h.Hub != nil {
		h.Hub.Broadcast(id, websocket.CreateTurnResultMessage(id, turn))
	}
	return c.JSON(http.StatusOK, turn)
}

func (h *handlers) getMessages(c echo.Context) error {
	messages, err := h.Chat.History(c.Request().Context(), sessionID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *handlers) setPersonality(c echo.Context) error {
	var req PersonalityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}

	personality, ok := entities.ParsePersonality(req.Personality)
	if !ok {
		return badRequest(c, "invalid_personality", "Personality must be supportive, therapist or coach")
	}

	session, err := h.Chat.SetPersonality(c.Request().Context(), sessionID(c), personality)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *handlers) setOfflineMode(c echo.Context) error {
	var req OfflineModeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}

	result, err := h.Chat.SetOfflineMode(c.Request().Context(), sessionID(c), req.OfflineMode)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handlers) getMood(c echo.Context) error {
	summary, err := h.Chat.MoodSummary(c.Request().Context(), sessionID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *handlers) getJournal(c echo.Context) error {
	entries, err := h.Chat.Journal(c.Request().Context(), sessionID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *handlers) addJournalEntry(c echo.Context) error {
	var req JournalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}

	// Empty content creates a draft
	entry, notice, err := h.Chat.AddJournalEntry(c.Request().Context(), sessionID(c), req.Content)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, JournalEntryResponse{Entry: entry, Notice: &notice})
}

func (h *handlers) updateJournalEntry(c echo.Context) error {
	var req JournalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}
	if strings.TrimSpace(req.Content) == "" {
		return badRequest(c, "missing_fields", "Content is required")
	}

	entry, err := h.Chat.UpdateJournalEntry(c.Request().Context(), sessionID(c), c.Param("entryID"), req.Content)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, JournalEntryResponse{Entry: entry})
}

func (h *handlers) faceEmotion(c echo.Context) error {
	var req FaceEmotionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}

	image := req.Image
	if i := strings.Index(image, ","); strings.HasPrefix(image, "data:") && i >= 0 {
		image = image[i+1:]
	}
	frame, err := base64.StdEncoding.DecodeString(image)
	if err != nil || len(frame) == 0 {
		return badRequest(c, "invalid_image", "Image must be non-empty base64")
	}

	id := sessionID(c)
	result, err := h.Chat.DetectFaceEmotion(c.Request().Context(), id, frame, req.Composing)
	if err != nil {
		return h.respondError(c, err)
	}

	if h.Hub != nil && result.Turn != nil {
		h.Hub.Broadcast(id, websocket.CreateTurnResultMessage(id, result.Turn))
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handlers) requestScan(c echo.Context) error {
	if err := h.Chat.RequestScan(c.Request().Context(), sessionID(c)); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) getSettings(c echo.Context) error {
	settings, err := h.Chat.Settings(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *handlers) updateSettings(c echo.Context) error {
	var req entities.Settings
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, "invalid_settings", err.Error())
	}

	settings, err := h.Chat.UpdateSettings(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *handlers) getCredential(c echo.Context) error {
	return c.JSON(http.StatusOK, CredentialResponse{
		State:      h.Credentials.State(),
		Configured: h.Credentials.Configured(c.Request().Context()),
	})
}

func (h *handlers) setCredential(c echo.Context) error {
	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return badRequest(c, "missing_fields", "api_key is required")
	}

	valid, err := h.Credentials.SetCredential(c.Request().Context(), req.APIKey)
	if err != nil {
		return h.respondError(c, err)
	}

	h.Logger.Info("API key updated", zap.Bool("valid", valid))
	resp := SetCredentialResponse{
		Credential: CredentialResponse{State: h.Credentials.State(), Configured: true, Valid: &valid},
	}
	if !valid {
		resp.Notices = append(resp.Notices, domain.NoticeAPIKeyInvalid)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) clearCredential(c echo.Context) error {
	if err := h.Credentials.ClearCredential(c.Request().Context()); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) translate(c echo.Context) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid_request", "Invalid request format")
	}
	if req.From == "" || req.To == "" {
		return badRequest(c, "missing_fields", "from and to are required")
	}

	result := h.Translator.Translate(c.Request().Context(), req.Text, req.From, req.To, req.Offline)
	return c.JSON(http.StatusOK, result)
}
