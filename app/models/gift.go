package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	ChargeStatusUnpaid = "unpaid"
	ChargeStatusPaid   = "paid"
)

// Spent is a tri-state string, not a bool: a gift is claimed ("pending")
// while a withdrawal is in flight and only "true" once the provider confirms.
const (
	SpentNo      = "false"
	SpentPending = "pending"
	SpentYes     = "true"
)

// ChargeInfo holds the provider-side funding invoice of a gift. ChargeID and
// ChargeInvoice are written once at creation and never change afterwards.
type ChargeInfo struct {
	ChargeID      string `gorm:"type:varchar(191);index" json:"chargeId"`
	ChargeInvoice string `gorm:"type:text" json:"chargeInvoice"`
	ChargeStatus  string `gorm:"type:varchar(16);not null;default:'unpaid'" json:"chargeStatus"`
}

// WithdrawalInfo is populated incrementally as a redemption proceeds:
// WithdrawalID when the claim is made, Fee on success, Error on failure.
type WithdrawalInfo struct {
	WithdrawalID      string `gorm:"type:varchar(191);index" json:"withdrawalId,omitempty"`
	WithdrawalInvoice string `gorm:"type:text" json:"withdrawalInvoice,omitempty"`
	Fee               int64  `json:"fee,omitempty"`
	Error             string `gorm:"type:varchar(255)" json:"error,omitempty"`
}

// Gift is a funded, single-use redeemable balance. The ID is an opaque random
// token that also serves as the LNURL k1 parameter.
type Gift struct {
	ID             string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Amount         int64          `gorm:"not null" json:"amount" validate:"min=100,max=500000"`
	ChargeInfo     ChargeInfo     `gorm:"embedded" json:"chargeInfo"`
	Spent          string         `gorm:"type:varchar(10);not null;default:'false';index" json:"spent"`
	WithdrawalInfo WithdrawalInfo `gorm:"embedded" json:"withdrawalInfo"`
	Notify         string         `gorm:"type:varchar(255)" json:"notify,omitempty" validate:"omitempty,url,max=255"`
	SenderName     string         `gorm:"type:varchar(15)" json:"senderName,omitempty" validate:"max=15"`
	SenderMessage  string         `gorm:"type:varchar(100)" json:"senderMessage,omitempty" validate:"max=100"`
	VerifyCodeHash string         `gorm:"type:varchar(100)" json:"-"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"-"`
}

// NewGiftID returns a 48 character random hex token.
func NewGiftID() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HasVerifyCode reports whether redemption and disclosure are PIN-gated.
func (g *Gift) HasVerifyCode() bool {
	return g.VerifyCodeHash != ""
}

// SetVerifyCode stores a bcrypt hash of the 4-digit code.
func (g *Gift) SetVerifyCode(code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	g.VerifyCodeHash = string(hash)
	return nil
}

// CheckVerifyCode compares an attempt against the stored hash.
func (g *Gift) CheckVerifyCode(attempt string) bool {
	if !g.HasVerifyCode() {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(g.VerifyCodeHash), []byte(attempt)) == nil
}
