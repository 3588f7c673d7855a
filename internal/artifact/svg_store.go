package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"tutor-server/internal/dialogue"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmptyDiagram - у упражнения нет разметки для сохранения.
	ErrEmptyDiagram = errors.New("exercise has no diagram")
	// ErrSaveFailed - не удалось записать файл иллюстрации.
	ErrSaveFailed = errors.New("failed to save diagram")
)

// SVGStore сохраняет SVG-иллюстрации упражнений в локальный каталог.
type SVGStore struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

var _ dialogue.ArtifactRenderer = (*SVGStore)(nil)

// NewSVGStore создает хранилище. Каталог создается при необходимости.
func NewSVGStore(dir, publicBaseURL string, logger *zap.Logger) (*SVGStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("artifact directory (ARTIFACT_DIR) is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &SVGStore{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger.Named("SVGStore"),
	}, nil
}

// Dir возвращает каталог с файлами.
func (s *SVGStore) Dir() string { return s.dir }

// Render записывает разметку в <dir>/<uuid>.svg и возвращает путь к файлу.
func (s *SVGStore) Render(ctx context.Context, ex dialogue.Exercise) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	markup := strings.TrimSpace(ex.Diagram)
	if markup == "" {
		return "", ErrEmptyDiagram
	}

	fileName := uuid.NewString() + ".svg"
	filePath := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(filePath, []byte(markup), 0o644); err != nil {
		s.logger.Error("Failed to save diagram", zap.String("path", filePath), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	s.logger.Debug("Diagram saved",
		zap.String("exerciseID", ex.ID),
		zap.String("path", filePath),
	)
	return filePath, nil
}

// PublicURL переводит путь к файлу, выданный Render, в публичный URL.
func (s *SVGStore) PublicURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	return s.baseURL + "/" + path.Base(filepath.ToSlash(filePath))
}
