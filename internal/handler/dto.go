package handler

import (
	"errors"
	"fmt"
	"strings"

	"tutor-server/internal/models"
	"tutor-server/internal/service"

	"github.com/go-playground/validator/v10"
)

// createRoomRequest - тело POST /rooms.
type createRoomRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Language string `json:"lang" validate:"omitempty,oneof=en he"`
}

// renameRoomRequest - тело PATCH /rooms/:uuid.
type renameRoomRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// messageURLRequest - вложение, присланное клиентом.
type messageURLRequest struct {
	FileURL string `json:"file_url" validate:"required,url"`
	Type    string `json:"type" validate:"omitempty,oneof=image file"`
}

// postMessageRequest - тело POST /rooms/:uuid/messages и кадр websocket.
type postMessageRequest struct {
	Text     string              `json:"text" validate:"required,max=4000"`
	Language string              `json:"lang" validate:"omitempty,max=8"`
	URLs     []messageURLRequest `json:"urls" validate:"omitempty,max=10,dive"`
}

func (r postMessageRequest) toInput() service.PostMessageInput {
	input := service.PostMessageInput{Text: r.Text, Language: r.Language}
	for _, u := range r.URLs {
		t := models.URLType(u.Type)
		if t == "" {
			t = models.URLTypeFile
		}
		input.URLs = append(input.URLs, models.MessageURL{FileURL: u.FileURL, Type: t})
	}
	return input
}

// RequestValidator подключает validator v10 к echo.
type RequestValidator struct {
	validator *validator.Validate
}

// NewRequestValidator создает валидатор запросов.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate проверяет структуру по тегам validate.
// Ошибка оборачивает models.ErrInvalidInput и перечисляет поля.
func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, strings.Join(fields, ", "))
}
