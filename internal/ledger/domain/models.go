// Package domain contains the per-user metering ledger and its
// append-only charge-event log.
package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CreditAmount is a fixed-point credit balance in milli-credits
// (1000 = 1 credit). Charges stay exact integers at the default
// tariff of 1.2 credits per page.
type CreditAmount int64

// CreditUnit is one whole credit expressed in milli-credits.
const CreditUnit CreditAmount = 1000

// CreditsFromFloat converts whole credits to milli-credits, rounding
// to the nearest milli-credit.
func CreditsFromFloat(credits float64) CreditAmount {
	return CreditAmount(math.Round(credits * float64(CreditUnit)))
}

// Float64 renders the amount in whole credits for API responses.
func (a CreditAmount) Float64() float64 {
	return float64(a) / float64(CreditUnit)
}

// UserLedger is the durable balance row, one per user.
//
// FreePagesRemaining never goes below zero and only increases by
// administrative grant. CreditBalance only decreases through the
// charge transaction. PagesUsedTotal is monotonically non-decreasing.
type UserLedger struct {
	UserID             string       `gorm:"primaryKey;type:text" json:"userId"`
	FreePagesRemaining int          `gorm:"not null" json:"freePagesRemaining"`
	CreditBalance      CreditAmount `gorm:"not null" json:"creditBalance"`
	PagesUsedTotal     int64        `gorm:"not null" json:"pagesUsedTotal"`
	CreatedAt          time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt          time.Time    `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (UserLedger) TableName() string { return "user_ledgers" }

// ChargeAction classifies entries in the charge-event log.
type ChargeAction string

const (
	ActionPageProcessed       ChargeAction = "page_processed"
	ActionLimitExceeded       ChargeAction = "limit_exceeded"
	ActionSubscriptionChanged ChargeAction = "subscription_changed"
)

// KnownAction reports whether the action belongs to the fixed set the
// history reader filters on.
func KnownAction(action ChargeAction) bool {
	switch action {
	case ActionPageProcessed, ActionLimitExceeded, ActionSubscriptionChanged:
		return true
	default:
		return false
	}
}

// ChargeEvent is the immutable audit record of one billing outcome.
type ChargeEvent struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID             string            `gorm:"type:text;not null;index:idx_charge_events_user_created,priority:1" json:"userId"`
	Action             ChargeAction      `gorm:"type:text;not null;index" json:"action"`
	PagesCharged       int               `gorm:"not null" json:"pagesCharged"`
	FreePagesConsumed  int               `gorm:"not null" json:"freePagesConsumed"`
	CreditsCharged     CreditAmount      `gorm:"not null" json:"creditsCharged"`
	ProcessingRecordID string            `gorm:"type:text" json:"processingRecordId"`
	ClientIP           string            `gorm:"type:text" json:"clientIp"`
	ClientUserAgent    string            `gorm:"type:text" json:"clientUserAgent"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;index:idx_charge_events_user_created,priority:2" json:"createdAt"`
}

// TableName sets the database table name.
func (ChargeEvent) TableName() string { return "charge_events" }
