package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	batchdomain "github.com/paperlane/paperlane/internal/batch/domain"
	"github.com/paperlane/paperlane/internal/clock"
	"github.com/paperlane/paperlane/internal/config"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const microUSD = 1_000_000

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Clock     clock.Clock
	LedgerSvc ledgerdomain.Service
}

type Service struct {
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	ledgerSvc      ledgerdomain.Service
	chargeTariff   ledgerdomain.Tariff
	displayPerPage int64
}

func NewService(p Params) batchdomain.Service {
	return &Service{
		log:            p.Log.Named("batch.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		ledgerSvc:      p.LedgerSvc,
		chargeTariff:   ledgerdomain.Tariff{CostPerPage: ledgerdomain.CreditAmount(p.Cfg.Billing.ChargeCostPerPage)},
		displayPerPage: p.Cfg.Billing.DisplayCostPerPage,
	}
}

// Create validates the job and previews its cost against the current
// ledger snapshot. The snapshot is advisory: the authoritative check
// happens again inside the charge transaction when processing starts.
func (s *Service) Create(ctx context.Context, userID string, subscriptionType string, req batchdomain.CreateJobRequest) (*batchdomain.CreateJobResponse, error) {
	job, err := batchdomain.Validate(req)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.ledgerSvc.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	breakdown := ledgerdomain.Evaluate(
		job.TotalEstimatedPages,
		snapshot.FreePagesRemaining,
		snapshot.CreditBalance,
		s.chargeTariff,
	)
	if !breakdown.Eligible {
		s.log.Info("batch job estimated over quota",
			zap.String("user_id", userID),
			zap.Int("estimated_pages", job.TotalEstimatedPages),
			zap.Int("payable_pages", breakdown.PayablePages),
		)
	}

	var totalSize int64
	for _, file := range job.Files {
		totalSize += file.SizeBytes
	}

	if subscriptionType == "" {
		subscriptionType = "free"
	}

	return &batchdomain.CreateJobResponse{
		BatchJob: batchdomain.JobSummary{
			ID:             s.genID.Generate(),
			Name:           job.Name,
			Description:    job.Description,
			FileCount:      len(job.Files),
			TotalSizeBytes: totalSize,
			Priority:       job.Priority,
			MergeOutput:    job.MergeOutput,
			MergeFormat:    job.MergeFormat,
			Status:         "validated",
			CreatedAt:      s.clock.Now(),
		},
		CostEstimate: batchdomain.CostEstimate{
			EstimatedPages:   job.TotalEstimatedPages,
			EstimatedCostUSD: float64(int64(job.TotalEstimatedPages)*s.displayPerPage) / microUSD,
			CurrentUsage:     snapshot.PagesUsedTotal,
			PagesRemaining:   snapshot.FreePagesRemaining,
			SubscriptionType: subscriptionType,
		},
	}, nil
}
