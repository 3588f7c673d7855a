package dialogue

import (
	"math/rand"
	"strings"
)

// DefaultRecentWindow - сколько последних упражнений помнить, чтобы не повторять их.
const DefaultRecentWindow = 20

// matchesGrade: пустой тег класса подходит любому ученику.
func matchesGrade(ex Exercise, grade, hebrewGrade string) bool {
	tag := normalizeGrade(ex.Grade)
	if tag == "" {
		return true
	}
	if g := normalizeGrade(grade); g != "" && tag == g {
		return true
	}
	if h := normalizeGrade(hebrewGrade); h != "" && tag == h {
		return true
	}
	return grade == "" && hebrewGrade == ""
}

// matchesTopic: совпадение без учета регистра или вхождение в любую сторону.
func matchesTopic(ex Exercise, topic string) bool {
	tag := strings.ToLower(strings.TrimSpace(ex.Topic))
	topic = strings.ToLower(strings.TrimSpace(topic))
	if tag == "" || topic == "" {
		return true
	}
	return tag == topic || strings.Contains(tag, topic) || strings.Contains(topic, tag)
}

// candidates возвращает упражнения под класс и тему ученика.
func candidates(pool []Exercise, s *State) []Exercise {
	out := make([]Exercise, 0, len(pool))
	for _, ex := range pool {
		if matchesGrade(ex, s.Grade, s.HebrewGrade) && matchesTopic(ex, s.Topic) {
			out = append(out, ex)
		}
	}
	return out
}

// selection - результат выбора упражнения.
type selection int

const (
	selected selection = iota
	noCandidates
)

// pickExercise выбирает новое упражнение и сбрасывает курсоры.
// Недавно заданные упражнения предлагаются, только когда других не осталось,
// и даже тогда не повторяется последнее, если есть из чего выбрать.
func pickExercise(pool []Exercise, s *State, rng *rand.Rand, window int) selection {
	s.CurrentExercise = nil
	s.HintIndex = 0
	s.QuestionIndex = 0

	matching := candidates(pool, s)
	if len(matching) == 0 {
		return noCandidates
	}

	recent := make(map[string]struct{}, len(s.RecentlyAskedIDs))
	for _, id := range s.RecentlyAskedIDs {
		recent[id] = struct{}{}
	}
	fresh := matching[:0:0]
	for _, ex := range matching {
		if _, ok := recent[ex.ID]; !ok {
			fresh = append(fresh, ex)
		}
	}
	if len(fresh) == 0 {
		fresh = exceptLast(matching, s.RecentlyAskedIDs)
	}

	ex := fresh[rng.Intn(len(fresh))].clone()
	s.CurrentExercise = &ex
	s.rememberAsked(ex.ID, window)
	return selected
}

// exceptLast убирает из matching последнее заданное упражнение,
// если после этого что-то остается.
func exceptLast(matching []Exercise, recent []string) []Exercise {
	if len(matching) < 2 || len(recent) == 0 {
		return matching
	}
	last := recent[len(recent)-1]
	out := make([]Exercise, 0, len(matching))
	for _, ex := range matching {
		if ex.ID != last {
			out = append(out, ex)
		}
	}
	if len(out) == 0 {
		return matching
	}
	return out
}

// rememberAsked добавляет id в окно недавних, вытесняя самые старые.
func (s *State) rememberAsked(id string, window int) {
	if window <= 0 {
		return
	}
	s.RecentlyAskedIDs = append(s.RecentlyAskedIDs, id)
	if over := len(s.RecentlyAskedIDs) - window; over > 0 {
		s.RecentlyAskedIDs = append([]string(nil), s.RecentlyAskedIDs[over:]...)
	}
}

// nextHint возвращает следующую подсказку или false, если подсказки кончились.
func nextHint(s *State) (string, bool) {
	if s.CurrentExercise == nil {
		return "", false
	}
	hints := s.CurrentExercise.Hints
	if s.HintIndex >= len(hints) {
		return "", false
	}
	hint := hints[min(s.HintIndex, len(hints)-1)]
	s.HintIndex++
	return hint, true
}

// normalizeAnswer убирает пробелы по краям и приводит к нижнему регистру.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsCorrect сравнивает ответ ученика с эталонным решением.
func IsCorrect(answer, solution string) bool {
	return normalizeAnswer(answer) == normalizeAnswer(stripMarkup(solution))
}
