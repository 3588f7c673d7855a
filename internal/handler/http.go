package handler

import (
	"errors"
	"net/http"

	"tutor-server/internal/middleware"
	"tutor-server/internal/models"
	"tutor-server/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// TutorHandler обрабатывает HTTP запросы репетитора.
type TutorHandler struct {
	service   service.TutorService
	verifier  middleware.TokenVerifier
	validator *RequestValidator
	logger    *zap.Logger
}

// NewTutorHandler создает новый TutorHandler.
func NewTutorHandler(s service.TutorService, verifier middleware.TokenVerifier, logger *zap.Logger) *TutorHandler {
	return &TutorHandler{
		service:   s,
		verifier:  verifier,
		validator: NewRequestValidator(),
		logger:    logger.Named("TutorHandler"),
	}
}

// RegisterRoutes регистрирует маршруты сервиса.
func (h *TutorHandler) RegisterRoutes(e *echo.Echo) {
	if e.Validator == nil {
		e.Validator = h.validator
	}
	authMiddleware := middleware.RequireUser(h.verifier, h.logger)

	// Публичные маршруты
	e.GET("/health", h.health)
	e.GET("/languages", h.getHeadlines)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rooms := e.Group("/rooms", authMiddleware)
	{
		rooms.POST("", h.createRoom)
		rooms.GET("", h.listRooms)
		rooms.GET("/:uuid", h.getRoom)
		rooms.PATCH("/:uuid", h.renameRoom)
		rooms.DELETE("/:uuid", h.deleteRoom)
		rooms.GET("/:uuid/messages", h.listMessages)
		rooms.POST("/:uuid/messages", h.postMessage)
	}

	e.GET("/ws/rooms/:uuid", h.serveChat, authMiddleware)
}

func (h *TutorHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TutorHandler) getHeadlines(c echo.Context) error {
	headlines, err := h.service.GetHeadlines(c.Request().Context(), c.QueryParam("lang"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, headlines)
}

func (h *TutorHandler) createRoom(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	var req createRoomRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}

	room, err := h.service.CreateRoom(c.Request().Context(), userID, req.Name, req.Language)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

func (h *TutorHandler) listRooms(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	rooms, err := h.service.ListRooms(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	if rooms == nil {
		rooms = []*models.ChatRoom{}
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *TutorHandler) getRoom(c echo.Context) error {
	userID, roomID, err := h.userAndRoom(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	room, err := h.service.GetRoom(c.Request().Context(), userID, roomID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *TutorHandler) renameRoom(c echo.Context) error {
	userID, roomID, err := h.userAndRoom(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	var req renameRoomRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	if err := h.service.RenameRoom(c.Request().Context(), userID, roomID, req.Name); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TutorHandler) deleteRoom(c echo.Context) error {
	userID, roomID, err := h.userAndRoom(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	if err := h.service.DeleteRoom(c.Request().Context(), userID, roomID); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TutorHandler) listMessages(c echo.Context) error {
	userID, roomID, err := h.userAndRoom(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	messages, err := h.service.ListMessages(c.Request().Context(), userID, roomID)
	if err != nil {
		return handleServiceError(c, err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *TutorHandler) postMessage(c echo.Context) error {
	userID, roomID, err := h.userAndRoom(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	var req postMessageRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}

	reply, err := h.service.PostMessage(c.Request().Context(), userID, roomID, req.toInput())
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, reply)
}

// --- Вспомогательные функции --- //

// bind разбирает и проверяет тело запроса.
func (h *TutorHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		h.logger.Debug("Failed to bind request", zap.Error(err))
		return errInvalidBody
	}
	return c.Validate(req)
}

var errInvalidBody = errors.New("Invalid request body")

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, APIError{Message: err.Error()})
}

func (h *TutorHandler) userAndRoom(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.UserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	roomID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return uuid.Nil, uuid.Nil, models.ErrInvalidInput
	}
	return userID, roomID, nil
}

// handleServiceError отображает ошибки сервиса в HTTP ответы.
func handleServiceError(c echo.Context, err error) error {
	status, body := serviceErrorStatus(err)
	return c.JSON(status, body)
}

// serviceErrorStatus отображает ошибку сервиса в HTTP код и тело ответа.
func serviceErrorStatus(err error) (int, APIError) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, APIError{Message: err.Error()}
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, APIError{Message: "Forbidden"}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, APIError{Message: "Resource not found or access denied"}
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, APIError{Message: "Room was modified concurrently, retry the request"}
	case errors.Is(err, models.ErrDataUnavailable):
		return http.StatusServiceUnavailable, APIError{Message: "Exercises data not available"}
	default:
		return http.StatusInternalServerError, APIError{Message: "Internal server error"}
	}
}
