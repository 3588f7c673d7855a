package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tutor-server/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Период пингов. Должен быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер кадра от клиента.
	maxMessageSize = 8 * 1024
	// Ответы, ожидающие отправки.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Токен проверяется до апгрейда, origin не ограничиваем.
		return true
	},
}

// chatFrame - кадр, отправляемый клиенту: ответ бота или ошибка.
type chatFrame struct {
	Message *models.Message `json:"message,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
}

// serveChat ведет разговор в комнате через websocket.
// Каждый входящий кадр - postMessageRequest в JSON или просто текст.
// Кадры обрабатываются строго по очереди.
func (h *TutorHandler) serveChat(c echo.Context) error {
	userID, roomID, err := h.userAndRoom(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	// Проверяем доступ до апгрейда, чтобы ответить обычным HTTP кодом.
	if _, err := h.service.ListMessages(c.Request().Context(), userID, roomID); err != nil {
		return handleServiceError(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		// upgrader уже записал ответ
		return nil
	}
	log := h.logger.With(zap.String("userID", userID.String()), zap.String("roomID", roomID.String()))
	log.Info("WebSocket connection established")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	send := make(chan chatFrame, sendBuffer)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writePump(ctx, conn, send, log)
	}()

	h.readPump(ctx, conn, send, userID, roomID, log)

	close(send)
	<-writerDone
	_ = conn.Close()
	log.Info("WebSocket connection closed")
	return nil
}

func (h *TutorHandler) readPump(ctx context.Context, conn *websocket.Conn, send chan<- chatFrame, userID, roomID uuid.UUID, log *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		req, err := decodeFrame(data)
		if err == nil {
			err = h.validator.Validate(req)
		}
		if err != nil {
			send <- chatFrame{Error: &APIError{Message: err.Error()}}
			continue
		}

		reply, err := h.service.PostMessage(ctx, userID, roomID, req.toInput())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("Failed to process chat message", zap.Error(err))
			_, apiErr := serviceErrorStatus(err)
			send <- chatFrame{Error: &apiErr}
			continue
		}
		send <- chatFrame{Message: reply}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, send <-chan chatFrame, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				log.Warn("Failed to write chat frame", zap.Error(err))
				_ = conn.Close()
				drain(send)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("Failed to send ping", zap.Error(err))
				_ = conn.Close()
				drain(send)
				return
			}
		case <-ctx.Done():
			drain(send)
			return
		}
	}
}

// drain освобождает читателя, пока тот не закроет канал.
func drain(send <-chan chatFrame) {
	for range send {
	}
}

func decodeFrame(data []byte) (postMessageRequest, error) {
	var req postMessageRequest
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &req); err != nil {
			return req, errInvalidBody
		}
		return req, nil
	}
	req.Text = string(data)
	return req, nil
}
