package catalog

import (
	"context"
	"time"

	"tutor-server/internal/dialogue"
)

// Snapshot - неизменяемый срез каталога упражнений.
// Вызывающий не должен менять Exercises.
type Snapshot struct {
	Exercises []dialogue.Exercise
	// Version меняется при любом изменении источника.
	Version  string
	LoadedAt time.Time
	Rejected int
}

// Store отдает актуальный снимок упражнений.
// Если снимок получить нельзя, ошибка оборачивает models.ErrDataUnavailable.
type Store interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

func newSnapshot(exercises []dialogue.Exercise, version string) *Snapshot {
	valid, rejected := dialogue.ValidExercises(exercises)
	return &Snapshot{
		Exercises: valid,
		Version:   version,
		LoadedAt:  time.Now(),
		Rejected:  rejected,
	}
}
