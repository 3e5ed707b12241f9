package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paperlane/paperlane/internal/clock"
	"github.com/paperlane/paperlane/internal/config"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	obsmetrics "github.com/paperlane/paperlane/internal/observability/metrics"
	"github.com/paperlane/paperlane/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	tariff     ledgerdomain.Tariff
	trialPages int
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		tariff:     ledgerdomain.Tariff{CostPerPage: ledgerdomain.CreditAmount(p.Cfg.Billing.ChargeCostPerPage)},
		trialPages: p.Cfg.Billing.FreeTrialPages,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) GetLedger(ctx context.Context, userID string) (*ledgerdomain.UserLedger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledgerdomain.ErrInvalidUser
	}

	var row ledgerdomain.UserLedger
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrUserNotFound
		}
		return nil, storeErr(err)
	}
	return &row, nil
}

func (s *Service) CreateLedger(ctx context.Context, userID string) (*ledgerdomain.UserLedger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledgerdomain.ErrInvalidUser
	}

	now := s.clock.Now()
	row := ledgerdomain.UserLedger{
		UserID:             userID,
		FreePagesRemaining: s.trialPages,
		CreditBalance:      0,
		PagesUsedTotal:     0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return nil, storeErr(err)
	}
	// A duplicate key means the trial was already granted; creation is
	// idempotent and must not reset balances.
	return s.GetLedger(ctx, userID)
}

// Charge applies the debit inside one transaction: it re-reads the
// balances under a row lock, re-evaluates eligibility on what it read,
// and either aborts without touching the row or applies the free-page
// and credit debits together with the charge event.
func (s *Service) Charge(ctx context.Context, req ledgerdomain.ChargeRequest) (*ledgerdomain.ChargeResult, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ledgerdomain.ErrInvalidUser
	}
	if req.Pages <= 0 {
		return nil, ledgerdomain.ErrInvalidPages
	}

	var result *ledgerdomain.ChargeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.lockLedger(ctx, tx, userID)
		if err != nil {
			return err
		}

		breakdown := ledgerdomain.Evaluate(req.Pages, row.FreePagesRemaining, row.CreditBalance, s.tariff)
		if !breakdown.Eligible {
			return &ledgerdomain.InsufficientCreditsError{Breakdown: breakdown}
		}

		now := s.clock.Now()
		// The guard re-states the balance condition so the update can
		// never overdraw even without the row lock (sqlite).
		update := tx.WithContext(ctx).Exec(
			`UPDATE user_ledgers
			 SET free_pages_remaining = free_pages_remaining - ?,
			     credit_balance = credit_balance - ?,
			     pages_used_total = pages_used_total + ?,
			     updated_at = ?
			 WHERE user_id = ?
			   AND free_pages_remaining >= ?
			   AND credit_balance >= ?`,
			breakdown.FreePagesUsed,
			int64(breakdown.RequiredCredits),
			req.Pages,
			now,
			userID,
			breakdown.FreePagesUsed,
			int64(breakdown.RequiredCredits),
		)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return fmt.Errorf("%w: ledger row changed during charge", ledgerdomain.ErrStoreUnavailable)
		}

		event := ledgerdomain.ChargeEvent{
			ID:                 s.genID.Generate(),
			UserID:             userID,
			Action:             ledgerdomain.ActionPageProcessed,
			PagesCharged:       req.Pages,
			FreePagesConsumed:  breakdown.FreePagesUsed,
			CreditsCharged:     breakdown.RequiredCredits,
			ProcessingRecordID: req.ProcessingRecordID,
			ClientIP:           req.ClientIP,
			ClientUserAgent:    req.ClientUserAgent,
			Metadata:           datatypes.JSONMap(req.Metadata),
			CreatedAt:          now,
		}
		if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
			return err
		}

		result = &ledgerdomain.ChargeResult{
			Breakdown:          breakdown,
			FreePagesRemaining: row.FreePagesRemaining - breakdown.FreePagesUsed,
			CreditBalance:      row.CreditBalance - breakdown.RequiredCredits,
			PagesUsedTotal:     row.PagesUsedTotal + int64(req.Pages),
			Event:              event,
		}
		return nil
	})
	if err != nil {
		var insufficient *ledgerdomain.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			s.obsMetrics.RecordRejection()
			s.recordRejectionEvent(ctx, userID, req, insufficient.Breakdown)
			return nil, insufficient
		}
		if errors.Is(err, ledgerdomain.ErrUserNotFound) {
			return nil, err
		}
		s.obsMetrics.RecordChargeError()
		return nil, storeErr(err)
	}

	s.obsMetrics.RecordCharge(req.Pages, result.Breakdown.RequiredCredits.Float64())
	s.log.Info("charge committed",
		zap.String("user_id", userID),
		zap.Int("pages", req.Pages),
		zap.Int("free_pages_used", result.Breakdown.FreePagesUsed),
		zap.Float64("credits_charged", result.Breakdown.RequiredCredits.Float64()),
		zap.String("processing_record_id", req.ProcessingRecordID),
	)
	return result, nil
}

func (s *Service) GrantCredits(ctx context.Context, userID string, amount ledgerdomain.CreditAmount, reason string) (*ledgerdomain.UserLedger, error) {
	if amount <= 0 {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	return s.grant(ctx, userID, reason, func(tx *gorm.DB, now time.Time) *gorm.DB {
		return tx.Exec(
			`UPDATE user_ledgers SET credit_balance = credit_balance + ?, updated_at = ? WHERE user_id = ?`,
			int64(amount), now, strings.TrimSpace(userID),
		)
	}, ledgerdomain.ChargeEvent{CreditsCharged: -amount})
}

func (s *Service) GrantFreePages(ctx context.Context, userID string, pages int, reason string) (*ledgerdomain.UserLedger, error) {
	if pages <= 0 {
		return nil, ledgerdomain.ErrInvalidPages
	}
	return s.grant(ctx, userID, reason, func(tx *gorm.DB, now time.Time) *gorm.DB {
		return tx.Exec(
			`UPDATE user_ledgers SET free_pages_remaining = free_pages_remaining + ?, updated_at = ? WHERE user_id = ?`,
			pages, now, strings.TrimSpace(userID),
		)
	}, ledgerdomain.ChargeEvent{FreePagesConsumed: -pages})
}

// grant applies an administrative balance increase and records a
// subscription_changed event in the same transaction. Negative
// consumed/charged fields on the event denote a grant.
func (s *Service) grant(ctx context.Context, userID string, reason string, apply func(tx *gorm.DB, now time.Time) *gorm.DB, eventDelta ledgerdomain.ChargeEvent) (*ledgerdomain.UserLedger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledgerdomain.ErrInvalidUser
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockLedger(ctx, tx, userID); err != nil {
			return err
		}
		now := s.clock.Now()
		update := apply(tx.WithContext(ctx), now)
		if update.Error != nil {
			return update.Error
		}
		event := ledgerdomain.ChargeEvent{
			ID:                s.genID.Generate(),
			UserID:            userID,
			Action:            ledgerdomain.ActionSubscriptionChanged,
			FreePagesConsumed: eventDelta.FreePagesConsumed,
			CreditsCharged:    eventDelta.CreditsCharged,
			Metadata:          datatypes.JSONMap{"reason": reason},
			CreatedAt:         now,
		}
		return tx.WithContext(ctx).Create(&event).Error
	})
	if err != nil {
		if errors.Is(err, ledgerdomain.ErrUserNotFound) {
			return nil, err
		}
		return nil, storeErr(err)
	}
	return s.GetLedger(ctx, userID)
}

// lockLedger reads the ledger row for update. Postgres takes a row
// lock; sqlite serializes through its writer lock instead, so the
// locking clause is skipped there.
func (s *Service) lockLedger(ctx context.Context, tx *gorm.DB, userID string) (*ledgerdomain.UserLedger, error) {
	stmt := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row ledgerdomain.UserLedger
	err := stmt.Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgerdomain.ErrUserNotFound
		}
		return nil, err
	}
	return &row, nil
}

// recordRejectionEvent appends a limit_exceeded audit row after the
// charge transaction rolled back. Best effort: the rejection itself
// already reached the caller.
func (s *Service) recordRejectionEvent(ctx context.Context, userID string, req ledgerdomain.ChargeRequest, breakdown ledgerdomain.Breakdown) {
	event := ledgerdomain.ChargeEvent{
		ID:                 s.genID.Generate(),
		UserID:             userID,
		Action:             ledgerdomain.ActionLimitExceeded,
		PagesCharged:       req.Pages,
		ProcessingRecordID: req.ProcessingRecordID,
		ClientIP:           req.ClientIP,
		ClientUserAgent:    req.ClientUserAgent,
		Metadata: datatypes.JSONMap{
			"payablePages":    breakdown.PayablePages,
			"requiredCredits": breakdown.RequiredCredits.Float64(),
		},
		CreatedAt: s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		s.log.Warn("failed to record limit_exceeded event",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// storeErr folds infrastructure failures into ErrStoreUnavailable so
// callers never see raw driver errors. Domain errors pass through.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ledgerdomain.ErrUserNotFound),
		errors.Is(err, ledgerdomain.ErrInsufficientCredits),
		errors.Is(err, ledgerdomain.ErrInvalidUser),
		errors.Is(err, ledgerdomain.ErrInvalidPages),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrStoreUnavailable):
		return err
	}
	return fmt.Errorf("%w: %v", ledgerdomain.ErrStoreUnavailable, err)
}
