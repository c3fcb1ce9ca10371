package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/grievance/internal/models"
)

// MaxWordLength bounds blocklist entries.
const MaxWordLength = 100

// AbusiveWordRepository defines the interface for the blocklist
type AbusiveWordRepository interface {
	List(ctx context.Context) ([]*models.AbusiveWord, error)
	Create(ctx context.Context, word string) (*models.AbusiveWord, error)
	Delete(ctx context.Context, id string) error
}

// TextCheck is the outcome of a dry-run scan.
type TextCheck struct {
	Abusive bool     `json:"abusive"`
	Matched []string `json:"matched"`
}

// ModerationService manages the abusive-word blocklist.
type ModerationService struct {
	repo   AbusiveWordRepository
	filter ContentFilter
	logger *slog.Logger
}

// NewModerationService creates a new ModerationService
func NewModerationService(repo AbusiveWordRepository, filter ContentFilter, logger *slog.Logger) *ModerationService {
	return &ModerationService{repo: repo, filter: filter, logger: logger}
}

// ListWords returns the blocklist ordered by word.
func (s *ModerationService) ListWords(ctx context.Context) ([]*models.AbusiveWord, error) {
	words, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list abusive words", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return words, nil
}

// AddWord stores a trimmed, lower-cased word. Duplicates return ErrConflict.
func (s *ModerationService) AddWord(ctx context.Context, actor models.Principal, word string) (*models.AbusiveWord, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, fmt.Errorf("%w: word is required", models.ErrBadRequest)
	}
	if len(word) > MaxWordLength {
		return nil, fmt.Errorf("%w: word must be at most %d characters", models.ErrBadRequest, MaxWordLength)
	}
	if strings.ContainsAny(word, " \t\n") {
		return nil, fmt.Errorf("%w: add one word at a time", models.ErrBadRequest)
	}

	created, err := s.repo.Create(ctx, word)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: %q is already blocked", models.ErrConflict, word)
		}
		s.logger.Error("failed to add abusive word", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("abusive word added", slog.String("actor_id", actor.UserID), slog.String("word_id", created.ID))
	return created, nil
}

// DeleteWord removes a word from the blocklist.
func (s *ModerationService) DeleteWord(ctx context.Context, actor models.Principal, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete abusive word", slog.String("word_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("abusive word removed", slog.String("actor_id", actor.UserID), slog.String("word_id", id))
	return nil
}

// CheckText scans text against the current blocklist without side effects.
func (s *ModerationService) CheckText(ctx context.Context, text string) (*TextCheck, error) {
	matched, err := s.filter.Scan(ctx, text)
	if err != nil {
		s.logger.Error("failed to scan text", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if matched == nil {
		matched = []string{}
	}
	return &TextCheck{Abusive: len(matched) > 0, Matched: matched}, nil
}
