package dialogue

import "strings"

// Stage - этап диалога.
type Stage int

const (
	StageStart Stage = iota
	StageSmallTalk
	StagePersonalFollowup
	StageAskGrade
	StageExerciseSelection
	StageQuestionAnswer
	StageEnd
)

var stageNames = map[Stage]string{
	StageStart:             "START",
	StageSmallTalk:         "SMALL_TALK",
	StagePersonalFollowup:  "PERSONAL_FOLLOWUP",
	StageAskGrade:          "ASK_GRADE",
	StageExerciseSelection: "EXERCISE_SELECTION",
	StageQuestionAnswer:    "QUESTION_ANSWER",
	StageEnd:               "END",
}

// String возвращает имя этапа в том виде, в каком оно хранится в БД.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid сообщает, входит ли значение в перечисление.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage разбирает имя этапа. Регистр не важен.
func ParseStage(name string) (Stage, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for stage, n := range stageNames {
		if n == name {
			return stage, true
		}
	}
	return StageStart, false
}

// Stages возвращает все этапы по порядку.
func Stages() []Stage {
	return []Stage{
		StageStart,
		StageSmallTalk,
		StagePersonalFollowup,
		StageAskGrade,
		StageExerciseSelection,
		StageQuestionAnswer,
		StageEnd,
	}
}
