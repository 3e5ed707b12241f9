package service

import (
	"context"
	"fmt"
	"strings"

	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	usagedomain "github.com/paperlane/paperlane/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) usagedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.service"),
	}
}

func (s *Service) List(ctx context.Context, req usagedomain.ListRequest) (*usagedomain.ListResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, usagedomain.ErrInvalidUser
	}

	page := req.Page
	if page < 0 {
		page = 0
	}
	limit := req.Limit
	if limit <= 0 {
		limit = usagedomain.DefaultPageSize
	}
	if limit > usagedomain.MaxPageSize {
		limit = usagedomain.MaxPageSize
	}

	query := s.db.WithContext(ctx).
		Model(&ledgerdomain.ChargeEvent{}).
		Where("user_id = ?", userID)

	action := ledgerdomain.ChargeAction(strings.TrimSpace(req.Action))
	if action != "" && ledgerdomain.KnownAction(action) {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ledgerdomain.ErrStoreUnavailable, err)
	}

	var events []ledgerdomain.ChargeEvent
	err := query.
		Order("created_at DESC, id DESC").
		Offset(page * limit).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledgerdomain.ErrStoreUnavailable, err)
	}

	return &usagedomain.ListResponse{
		Events: events,
		Page:   page,
		Limit:  limit,
		Total:  total,
	}, nil
}
