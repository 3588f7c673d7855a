package dialogue_test

import (
	"encoding/json"
	"testing"

	"tutor-server/internal/dialogue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExercise_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ex      dialogue.Exercise
		wantErr bool
	}{
		{"valid", dialogue.Exercise{Questions: []string{"q"}, Solutions: []string{"s"}}, false},
		{"no questions", dialogue.Exercise{}, true},
		{"count mismatch", dialogue.Exercise{Questions: []string{"q1", "q2"}, Solutions: []string{"s"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ex.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, dialogue.ErrMalformedExercise)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExercise_CatalogFormat(t *testing.T) {
	raw := `{"grade":"8","topic":"Algebra","text":{"question":["$2x=10$"],"solution":["$x=5$"]},"hints":["divide"],"diagram":"<svg/>"}`

	var ex dialogue.Exercise
	require.NoError(t, json.Unmarshal([]byte(raw), &ex))

	assert.Equal(t, "8", ex.Grade)
	assert.Equal(t, "Algebra", ex.Topic)
	assert.Equal(t, "2x=10", ex.Question(0))
	assert.Equal(t, "x=5", ex.Solution(0))
	assert.Equal(t, []string{"divide"}, ex.Hints)
	assert.Equal(t, "<svg/>", ex.Diagram)
}

func TestValidExercises(t *testing.T) {
	pool := []dialogue.Exercise{
		{Questions: []string{"q1"}, Solutions: []string{"s1"}},
		{ID: "keep", Questions: []string{"q2"}, Solutions: []string{"s2"}},
		{Questions: []string{"q3"}},
		{},
	}

	valid, rejected := dialogue.ValidExercises(pool)

	require.Len(t, valid, 2)
	assert.Equal(t, 2, rejected)
	assert.Equal(t, dialogue.DeriveID(pool[0]), valid[0].ID)
	assert.Equal(t, "keep", valid[1].ID)
}

func TestDeriveID_Stable(t *testing.T) {
	a := dialogue.Exercise{Questions: []string{"2x=10"}, Solutions: []string{"x=5"}}
	b := dialogue.Exercise{Questions: []string{"2x=10"}, Solutions: []string{"5"}, Hints: []string{"h"}}
	c := dialogue.Exercise{Questions: []string{"3x=9"}, Solutions: []string{"x=3"}}

	assert.Equal(t, dialogue.DeriveID(a), dialogue.DeriveID(b))
	assert.NotEqual(t, dialogue.DeriveID(a), dialogue.DeriveID(c))
}

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		answer   string
		solution string
		want     bool
	}{
		{"42", "42", true},
		{" 42 ", "42", true},
		{"42 ", "42", true},
		{"forty-two", "42", false},
		{"X=5", "$x=5$", true},
		{"x = 5", "x=5", false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, dialogue.IsCorrect(tt.answer, tt.solution))
		})
	}
}

func TestHebrewGrade(t *testing.T) {
	assert.Equal(t, "א׳", dialogue.HebrewGrade("1"))
	assert.Equal(t, "י״ב", dialogue.HebrewGrade(" 12 "))
	assert.Empty(t, dialogue.HebrewGrade("13"))
	assert.Empty(t, dialogue.HebrewGrade("eighth"))
}
