package models

// Headline - приветствие и подсказка поля ввода для языка интерфейса.
type Headline struct {
	Language         string `db:"language" json:"language"`
	WelcomeMessage   string `db:"welcome_message" json:"welcome_message"`
	InputPlaceholder string `db:"input_placeholder" json:"input_placeholder"`
}
