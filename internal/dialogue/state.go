package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidState - сохраненное состояние не удалось восстановить.
var ErrInvalidState = errors.New("invalid dialogue state")

// State - сериализуемое состояние одного разговора.
type State struct {
	Stage            Stage
	Language         string
	Grade            string
	HebrewGrade      string
	Topic            string
	CurrentExercise  *Exercise
	HintIndex        int
	QuestionIndex    int
	RecentlyAskedIDs []string
}

// InitialState возвращает состояние нового разговора.
func InitialState(lang string) State {
	return State{
		Stage:    StageStart,
		Language: ResolveLanguage(lang),
	}
}

type stateJSON struct {
	State            string    `json:"state"`
	Grade            *string   `json:"grade"`
	HebrewGrade      *string   `json:"hebrew_grade,omitempty"`
	Topic            *string   `json:"topic"`
	CurrentExercise  *Exercise `json:"current_exercise"`
	HintIndex        int       `json:"hint_index"`
	QuestionIndex    int       `json:"question_index"`
	Language         string    `json:"language"`
	RecentlyAskedIDs []string  `json:"recently_asked_ids"`
}

// Marshal сериализует состояние в JSON-объект.
func (s State) Marshal() ([]byte, error) {
	raw := stateJSON{
		State:            s.Stage.String(),
		Grade:            optional(s.Grade),
		HebrewGrade:      optional(s.HebrewGrade),
		Topic:            optional(s.Topic),
		CurrentExercise:  s.CurrentExercise,
		HintIndex:        s.HintIndex,
		QuestionIndex:    s.QuestionIndex,
		Language:         s.Language,
		RecentlyAskedIDs: nonNil(s.RecentlyAskedIDs),
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dialogue state: %w", err)
	}
	return data, nil
}

// UnmarshalState восстанавливает состояние.
// Пустой ввод дает начальное состояние без ошибки. Если состояние испорчено
// (неизвестный этап, битое упражнение), возвращается начальное состояние и
// ошибка, оборачивающая ErrInvalidState: разговор должен продолжаться.
func UnmarshalState(data []byte) (State, error) {
	if len(data) == 0 || string(data) == "null" || string(data) == "{}" {
		return InitialState(DefaultLanguage), nil
	}

	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return InitialState(DefaultLanguage), fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	lang := ResolveLanguage(raw.Language)

	stage := StageStart
	if raw.State != "" {
		parsed, ok := ParseStage(raw.State)
		if !ok {
			return InitialState(lang), fmt.Errorf("%w: unknown stage %q", ErrInvalidState, raw.State)
		}
		stage = parsed
	}

	s := State{
		Stage:            stage,
		Language:         lang,
		Grade:            deref(raw.Grade),
		HebrewGrade:      deref(raw.HebrewGrade),
		Topic:            deref(raw.Topic),
		HintIndex:        raw.HintIndex,
		QuestionIndex:    raw.QuestionIndex,
		RecentlyAskedIDs: emptyToNil(raw.RecentlyAskedIDs),
	}
	if s.Grade != "" && s.HebrewGrade == "" {
		s.HebrewGrade = HebrewGrade(s.Grade)
	}

	if raw.CurrentExercise != nil && stage == StageQuestionAnswer {
		ex := *raw.CurrentExercise
		if err := ex.Validate(); err != nil {
			return InitialState(lang), fmt.Errorf("%w: current exercise: %v", ErrInvalidState, err)
		}
		if s.QuestionIndex < 0 || s.QuestionIndex >= len(ex.Questions) {
			return InitialState(lang), fmt.Errorf("%w: question index %d out of range", ErrInvalidState, s.QuestionIndex)
		}
		s.CurrentExercise = &ex
	}
	s.normalize()
	return s, nil
}

// normalize приводит индексы к допустимым значениям.
func (s *State) normalize() {
	if s.CurrentExercise == nil {
		s.HintIndex = 0
		s.QuestionIndex = 0
		return
	}
	if s.HintIndex < 0 {
		s.HintIndex = 0
	}
	if n := len(s.CurrentExercise.Hints); s.HintIndex > n {
		s.HintIndex = n
	}
}

// Clone возвращает глубокую копию состояния.
func (s State) Clone() State {
	c := s
	if s.CurrentExercise != nil {
		ex := s.CurrentExercise.clone()
		c.CurrentExercise = &ex
	}
	c.RecentlyAskedIDs = append([]string(nil), s.RecentlyAskedIDs...)
	return c
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
