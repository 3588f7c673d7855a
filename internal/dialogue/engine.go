package dialogue

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Answerer - внешний генеративный помощник.
type Answerer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// ArtifactRenderer сохраняет иллюстрацию к упражнению и возвращает путь к файлу.
type ArtifactRenderer interface {
	Render(ctx context.Context, ex Exercise) (string, error)
}

// Deps - зависимости движка.
type Deps struct {
	AI        Answerer
	Artifacts ArtifactRenderer // может быть nil
	Rand      *rand.Rand       // nil - источник от текущего времени
	Logger    *zap.Logger

	// RecentWindow: 0 - DefaultRecentWindow, отрицательное значение отключает учет повторов.
	RecentWindow int
	// EndOnExhaustion переводит разговор в END, когда упражнения закончились.
	EndOnExhaustion bool
}

// Reply - ответ движка на одну реплику.
type Reply struct {
	Text         string
	ArtifactPath string
	UsedAI       bool
}

// Engine - конечный автомат диалога для одного разговора.
// Не потокобезопасен: вызовы Transition для одного разговора должны быть последовательными.
type Engine struct {
	exercises       []Exercise
	state           State
	ai              Answerer
	artifacts       ArtifactRenderer
	rng             *rand.Rand
	logger          *zap.Logger
	window          int
	endOnExhaustion bool
}

// NewEngine создает движок над снимком упражнений и ранее сохраненным состоянием.
// Некорректные упражнения отбрасываются.
func NewEngine(exercises []Exercise, state State, deps Deps) *Engine {
	valid, _ := ValidExercises(exercises)

	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	window := deps.RecentWindow
	if window == 0 {
		window = DefaultRecentWindow
	}

	s := state.Clone()
	if !s.Stage.Valid() {
		s = InitialState(s.Language)
	}
	s.Language = ResolveLanguage(s.Language)
	s.normalize()

	return &Engine{
		exercises:       valid,
		state:           s,
		ai:              deps.AI,
		artifacts:       deps.Artifacts,
		rng:             rng,
		logger:          logger.Named("DialogueEngine"),
		window:          window,
		endOnExhaustion: deps.EndOnExhaustion,
	}
}

// State возвращает копию текущего состояния.
func (e *Engine) State() State {
	return e.state.Clone()
}

// SetLanguage переключает язык разговора. Неподдерживаемый код игнорируется.
func (e *Engine) SetLanguage(lang string) bool {
	if !SupportedLanguage(lang) {
		return false
	}
	e.state.Language = ResolveLanguage(lang)
	return true
}

// Transition обрабатывает реплику пользователя и возвращает ответ.
// Ошибка возвращается только если контекст отменен; в этом случае состояние не меняется.
func (e *Engine) Transition(ctx context.Context, utterance string) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	next := e.state.Clone()
	reply := e.step(ctx, &next, strings.TrimSpace(utterance))

	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	if reply.Text == "" {
		reply.Text = "?"
	}
	e.state = next
	return reply, nil
}

func (e *Engine) step(ctx context.Context, s *State, text string) Reply {
	p := Phrases(s.Language)

	switch s.Stage {
	case StageStart:
		s.Stage = StageSmallTalk
		return Reply{Text: e.choose(p.SmallTalk)}

	case StageSmallTalk:
		s.Stage = StagePersonalFollowup
		return Reply{Text: e.choose(p.SmallTalk)}

	case StagePersonalFollowup:
		s.Stage = StageAskGrade
		return Reply{Text: e.choose(p.PersonalFollowup) + "\n" + p.AskGrade}

	case StageAskGrade:
		s.Grade = text
		s.HebrewGrade = HebrewGrade(text)
		s.Stage = StageExerciseSelection
		return Reply{Text: fmt.Sprintf(p.AskTopic, displayGrade(s))}

	case StageExerciseSelection:
		s.Topic = strings.ToLower(text)
		s.Stage = StageQuestionAnswer
		if pickExercise(e.exercises, s, e.rng, e.window) != selected {
			return Reply{Text: fmt.Sprintf(p.NoExercises, displayGrade(s), s.Topic)}
		}
		return Reply{
			Text:         p.ReadyForQuestion + "\n" + s.CurrentExercise.Question(s.QuestionIndex),
			ArtifactPath: e.render(ctx, s),
		}

	case StageQuestionAnswer:
		return e.answer(ctx, s, text, p)

	case StageEnd:
		return Reply{Text: p.SessionOver}
	}

	return Reply{Text: "?"}
}

func (e *Engine) answer(ctx context.Context, s *State, text string, p Locale) Reply {
	command := normalizeAnswer(text)
	ex := s.CurrentExercise

	switch {
	case command == "hint":
		if hint, ok := nextHint(s); ok {
			return Reply{Text: p.HintPrefix + " " + hint}
		}
		return Reply{Text: p.HintPrefix + " " + p.NoMoreHints}

	case command == "solution" || command == "pass":
		if ex == nil {
			if pickExercise(e.exercises, s, e.rng, e.window) == selected {
				return Reply{
					Text:         p.ReadyForQuestion + "\n" + s.CurrentExercise.Question(s.QuestionIndex),
					ArtifactPath: e.render(ctx, s),
				}
			}
			resp := e.ask(ctx, s, s.Topic)
			return Reply{Text: p.AISays + ":\n" + resp + "\n" + p.NoMoreExercises, UsedAI: true}
		}
		head := p.SolutionPrefix + " " + ex.Solution(s.QuestionIndex)
		return e.advance(ctx, s, p, head, head+"\n\n"+p.AISays)

	case ex == nil:
		// Упражнений нет: свободная помощь.
		resp := e.ask(ctx, s, text)
		return Reply{Text: p.AISays + ":\n" + resp, UsedAI: true}

	case IsCorrect(text, ex.Solutions[s.QuestionIndex]):
		return e.advance(ctx, s, p, p.Correct, p.Correct+"\n"+p.AISuggests)

	default:
		resp := e.ask(ctx, s, text)
		return Reply{Text: p.WrongAnswer + "\n" + p.AISuggests + ":\n" + resp, UsedAI: true}
	}
}

// advance выбирает следующее упражнение и дописывает его вопрос к head.
// Если под класс и тему ничего не подходит, ответ помощника по теме идет после exhaustedHead.
func (e *Engine) advance(ctx context.Context, s *State, p Locale, head, exhaustedHead string) Reply {
	if pickExercise(e.exercises, s, e.rng, e.window) == selected {
		return Reply{
			Text:         head + "\n\n" + p.NextQuestion + ":\n" + s.CurrentExercise.Question(s.QuestionIndex),
			ArtifactPath: e.render(ctx, s),
		}
	}

	resp := e.ask(ctx, s, s.Topic)
	if e.endOnExhaustion {
		s.Stage = StageEnd
	}
	return Reply{
		Text:   exhaustedHead + ":\n" + resp + "\n" + p.NoMoreExercises,
		UsedAI: true,
	}
}

// ask обращается к помощнику. Любая ошибка превращается в текст извинения.
func (e *Engine) ask(ctx context.Context, s *State, prompt string) string {
	p := Phrases(s.Language)
	prompt = strings.TrimSpace(prompt)
	if e.ai == nil || prompt == "" {
		return p.AIUnavailable
	}

	resp, err := e.ai.Answer(ctx, prompt)
	if err != nil {
		e.logger.Warn("AI fallback failed, replying with apology",
			zap.String("stage", s.Stage.String()),
			zap.Error(err),
		)
		return p.AIUnavailable
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		e.logger.Warn("AI fallback returned empty answer", zap.String("stage", s.Stage.String()))
		return p.AIUnavailable
	}
	return resp
}

// render сохраняет иллюстрацию текущего упражнения, если она есть.
func (e *Engine) render(ctx context.Context, s *State) string {
	ex := s.CurrentExercise
	if e.artifacts == nil || ex == nil || strings.TrimSpace(ex.Diagram) == "" {
		return ""
	}
	path, err := e.artifacts.Render(ctx, *ex)
	if err != nil {
		e.logger.Warn("Failed to render exercise diagram",
			zap.String("exerciseID", ex.ID),
			zap.Error(err),
		)
		return ""
	}
	return path
}

func (e *Engine) choose(options []string) string {
	if len(options) == 0 {
		return "?"
	}
	return options[e.rng.Intn(len(options))]
}

func displayGrade(s *State) string {
	if s.Language == LanguageHebrew && s.HebrewGrade != "" {
		return s.HebrewGrade
	}
	return s.Grade
}
