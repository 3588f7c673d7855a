package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformedExercise - у упражнения нет вопросов или число вопросов и решений не совпадает.
var ErrMalformedExercise = errors.New("malformed exercise")

// exerciseNamespace - пространство имен для выводимых идентификаторов упражнений.
var exerciseNamespace = uuid.MustParse("6f1c2a0e-4f3b-5d8a-9c7e-2b1d0a9e8f71")

// Exercise - упражнение из каталога. Для движка только для чтения.
type Exercise struct {
	ID        string
	Grade     string
	Topic     string
	Questions []string
	Solutions []string
	Hints     []string
	Diagram   string // SVG-разметка, необязательно
}

type exerciseText struct {
	Question []string `json:"question"`
	Solution []string `json:"solution"`
}

type exerciseJSON struct {
	ID      string       `json:"id,omitempty"`
	Grade   string       `json:"grade,omitempty"`
	Topic   string       `json:"topic,omitempty"`
	Text    exerciseText `json:"text"`
	Hints   []string     `json:"hints"`
	Diagram string       `json:"diagram,omitempty"`
}

// MarshalJSON пишет упражнение в формате каталога ({"text":{"question":[],"solution":[]},"hints":[]}).
func (e Exercise) MarshalJSON() ([]byte, error) {
	return json.Marshal(exerciseJSON{
		ID:      e.ID,
		Grade:   e.Grade,
		Topic:   e.Topic,
		Text:    exerciseText{Question: nonNil(e.Questions), Solution: nonNil(e.Solutions)},
		Hints:   nonNil(e.Hints),
		Diagram: e.Diagram,
	})
}

// UnmarshalJSON читает упражнение в формате каталога.
func (e *Exercise) UnmarshalJSON(data []byte) error {
	var raw exerciseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Exercise{
		ID:        raw.ID,
		Grade:     raw.Grade,
		Topic:     raw.Topic,
		Questions: emptyToNil(raw.Text.Question),
		Solutions: emptyToNil(raw.Text.Solution),
		Hints:     emptyToNil(raw.Hints),
		Diagram:   raw.Diagram,
	}
	return nil
}

// Validate проверяет инвариант вопросов и решений.
func (e Exercise) Validate() error {
	if len(e.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrMalformedExercise)
	}
	if len(e.Questions) != len(e.Solutions) {
		return fmt.Errorf("%w: %d questions, %d solutions", ErrMalformedExercise, len(e.Questions), len(e.Solutions))
	}
	return nil
}

// Question возвращает текст вопроса без символов разметки '$'.
func (e Exercise) Question(i int) string {
	return stripMarkup(e.Questions[i])
}

// Solution возвращает текст решения без символов разметки '$'.
func (e Exercise) Solution(i int) string {
	return stripMarkup(e.Solutions[i])
}

// clone возвращает копию, не разделяющую срезы с оригиналом.
func (e Exercise) clone() Exercise {
	c := e
	c.Questions = append([]string(nil), e.Questions...)
	c.Solutions = append([]string(nil), e.Solutions...)
	c.Hints = append([]string(nil), e.Hints...)
	return c
}

// DeriveID возвращает стабильный идентификатор для упражнения без id.
func DeriveID(e Exercise) string {
	seed := strings.Join(e.Questions, "\n")
	return uuid.NewSHA1(exerciseNamespace, []byte(seed)).String()
}

// ValidExercises отбрасывает некорректные упражнения и проставляет недостающие id.
// Возвращает годные упражнения и число отброшенных.
func ValidExercises(in []Exercise) ([]Exercise, int) {
	out := make([]Exercise, 0, len(in))
	rejected := 0
	for _, ex := range in {
		if ex.Validate() != nil {
			rejected++
			continue
		}
		if strings.TrimSpace(ex.ID) == "" {
			ex.ID = DeriveID(ex)
		}
		out = append(out, ex)
	}
	return out, rejected
}

func stripMarkup(s string) string {
	return strings.ReplaceAll(s, "$", "")
}

func emptyToNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
