package dialogue

import (
	"strconv"
	"strings"
)

var hebrewGrades = map[int]string{
	1:  "א׳",
	2:  "ב׳",
	3:  "ג׳",
	4:  "ד׳",
	5:  "ה׳",
	6:  "ו׳",
	7:  "ז׳",
	8:  "ח׳",
	9:  "ט׳",
	10: "י׳",
	11: "י״א",
	12: "י״ב",
}

// HebrewGrade переводит номер класса (1-12) в буквенное обозначение.
// Для прочих значений возвращает пустую строку.
func HebrewGrade(grade string) string {
	n, err := strconv.Atoi(strings.TrimSpace(grade))
	if err != nil {
		return ""
	}
	return hebrewGrades[n]
}

// normalizeGrade приводит обозначение класса к виду для сравнения:
// без пробелов, геришей и гершаимов.
func normalizeGrade(g string) string {
	g = strings.ToLower(strings.TrimSpace(g))
	return strings.NewReplacer("׳", "", "״", "", "'", "", "\"", "", " ", "").Replace(g)
}
