package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
	"github.com/user/listing-monitor/pkg/utils"
)

const (
	DefaultOrderParam = "search[order]"
	DefaultOrderValue = "created_at:desc"
)

// TargetConfig names the query parameter that forces newest-first ordering.
type TargetConfig struct {
	OrderParam string
	OrderValue string
}

// TargetService manages the monitored search pages.
type TargetService interface {
	// Add validates and normalizes rawURL, stores it and announces it to
	// running schedulers.
	Add(ctx context.Context, rawURL, title string) (*entity.MonitoredTarget, error)
	List(ctx context.Context) ([]*entity.MonitoredTarget, error)
	// Normalize validates rawURL and rewrites its ordering parameter.
	Normalize(rawURL string) (string, error)
}

type targetService struct {
	cfg       TargetConfig
	repo      repository.TargetRepository
	announcer repository.TargetAnnouncer
	logger    *zap.Logger
}

// NewTargetService creates a TargetService. announcer may be nil.
func NewTargetService(
	cfg TargetConfig,
	repo repository.TargetRepository,
	announcer repository.TargetAnnouncer,
	logger *zap.Logger,
) TargetService {
	if cfg.OrderParam == "" {
		cfg.OrderParam = DefaultOrderParam
	}
	if cfg.OrderValue == "" {
		cfg.OrderValue = DefaultOrderValue
	}
	return &targetService{cfg: cfg, repo: repo, announcer: announcer, logger: logger.Named("targets")}
}

func (s *targetService) Normalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := utils.ValidateTargetURL(rawURL); err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrInvalidTargetURL, err)
	}
	normalized, err := utils.ForceQueryParam(rawURL, s.cfg.OrderParam, s.cfg.OrderValue)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrInvalidTargetURL, err)
	}
	return normalized, nil
}

func (s *targetService) Add(ctx context.Context, rawURL, title string) (*entity.MonitoredTarget, error) {
	normalized, err := s.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = normalized
	}

	id, err := s.repo.InsertTarget(ctx, title, normalized, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to store target %s: %w", normalized, err)
	}
	target := &entity.MonitoredTarget{ID: id, Title: title, URL: normalized}
	s.logger.Info("target added", zap.Int64("target_id", id), zap.String("url", normalized))

	if s.announcer != nil {
		if err := s.announcer.Announce(ctx, id); err != nil {
			// The target is stored; schedulers pick it up on their next restart.
			s.logger.Warn("failed to announce target", zap.Int64("target_id", id), zap.Error(err))
		}
	}
	return target, nil
}

func (s *targetService) List(ctx context.Context) ([]*entity.MonitoredTarget, error) {
	return s.repo.ListTargets(ctx)
}
