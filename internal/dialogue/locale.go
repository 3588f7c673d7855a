package dialogue

import "strings"

const (
	LanguageEnglish = "en"
	LanguageHebrew  = "he"

	// DefaultLanguage используется, если язык не задан или не поддерживается.
	DefaultLanguage = LanguageEnglish
)

// Locale - набор фраз для одного языка.
type Locale struct {
	SmallTalk         []string
	PersonalFollowup  []string
	AskGrade          string
	AskTopic          string // %s - класс
	ReadyForQuestion  string
	HintPrefix        string
	SolutionPrefix    string
	WrongAnswer       string
	NoExercises       string // %[1]s - класс, %[2]s - тема
	PassToSolution    string
	NoMoreHints       string
	NextQuestion      string
	Correct           string
	AISays            string
	AISuggests        string
	NoMoreExercises   string
	AIUnavailable     string
	SessionOver       string
	TitleInstructions string
}

var locales = map[string]Locale{
	LanguageEnglish: {
		SmallTalk: []string{
			"Hi! How’s your day going?",
			"Did you watch the game yesterday?",
			"Hey! How’s everything today?",
		},
		PersonalFollowup: []string{
			"How was your last class?",
			"Which topic did you enjoy the most recently?",
			"Was your last lesson easy or challenging?",
		},
		AskGrade:          "Nice! Before we start, what grade are you in? (e.g., 7, 8)",
		AskTopic:          "Great! Grade %s. Which topic would you like to practice?",
		ReadyForQuestion:  "Awesome! Let’s start with the next exercise:",
		HintPrefix:        "💡 Hint:",
		SolutionPrefix:    "✅ Solution:",
		WrongAnswer:       "❌ Incorrect. Try again or type 'hint' for a hint.",
		NoExercises:       "No exercises found for grade %[1]s and topic %[2]s.",
		PassToSolution:    "Moving to solution:",
		NoMoreHints:       "No more hints available.",
		NextQuestion:      "Next question",
		Correct:           "✅ Correct!",
		AISays:            "GenAI says",
		AISuggests:        "GenAI suggests",
		NoMoreExercises:   "No more exercises.",
		AIUnavailable:     "Sorry, I can't get extra help right now. Please try again in a moment.",
		SessionOver:       "This practice session is over. Open a new chat to keep practicing.",
		TitleInstructions: "Write a short title (at most 6 words) for this tutoring conversation. Reply with the title only.",
	},
	LanguageHebrew: {
		SmallTalk: []string{
			"שלום! איך עובר עליך היום?",
			"צפית במשחק אתמול?",
			"היי! איך הכל היום?",
		},
		PersonalFollowup: []string{
			"איך היה השיעור האחרון שלך?",
			"איזה נושא הכי נהנת לאחרונה?",
			"האם השיעור האחרון היה קל או מאתגר?",
		},
		AskGrade:          "נחמד! לפני שנתחיל, באיזה כיתה אתה? (לדוגמה, 7, 8)",
		AskTopic:          "מעולה! כיתה %s. איזה נושא תרצה לתרגל?",
		ReadyForQuestion:  "נהדר! בוא נתחיל עם התרגיל הבא:",
		HintPrefix:        "💡 רמז:",
		SolutionPrefix:    "✅ פתרון:",
		WrongAnswer:       "❌ לא נכון. נסה שוב או הקלד 'hint' לקבלת רמז.",
		NoExercises:       "לא נמצאו תרגילים עבור כיתה %[1]s ונושא %[2]s.",
		PassToSolution:    "מעבר לפתרון:",
		NoMoreHints:       "אין יותר רמזים.",
		NextQuestion:      "השאלה הבאה",
		Correct:           "✅ נכון!",
		AISays:            "GenAI אומר",
		AISuggests:        "GenAI מציע",
		NoMoreExercises:   "אין יותר תרגילים.",
		AIUnavailable:     "מצטערים, לא ניתן לקבל עזרה נוספת כרגע. נסה שוב בעוד רגע.",
		SessionOver:       "מפגש התרגול הסתיים. פתח שיחה חדשה כדי להמשיך לתרגל.",
		TitleInstructions: "כתוב כותרת קצרה (עד 6 מילים) לשיחת התרגול הזו. השב עם הכותרת בלבד.",
	},
}

// SupportedLanguage сообщает, есть ли фразы для языка.
func SupportedLanguage(lang string) bool {
	_, ok := locales[normalizeLanguage(lang)]
	return ok
}

// ResolveLanguage возвращает поддерживаемый код языка, иначе DefaultLanguage.
func ResolveLanguage(lang string) string {
	lang = normalizeLanguage(lang)
	if _, ok := locales[lang]; ok {
		return lang
	}
	return DefaultLanguage
}

// Phrases возвращает фразы для языка. Неизвестный язык - фразы по умолчанию.
func Phrases(lang string) Locale {
	return locales[ResolveLanguage(lang)]
}

// Languages возвращает поддерживаемые коды языков.
func Languages() []string {
	return []string{LanguageEnglish, LanguageHebrew}
}

func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
