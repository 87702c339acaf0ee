package gifts

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lngifts/LightningGifts/app/models"
)

// Repository provides the persistence operations the gift state machine
// depends on. Lookups return gorm.ErrRecordNotFound when no row matches.
// The spent transitions are conditional updates: they report whether the row
// actually moved, which is what makes concurrent redemption attempts and
// duplicate webhooks safe.
type Repository interface {
	CreateGift(gift *models.Gift) error
	GetGift(id string) (*models.Gift, error)
	GetGiftByWithdrawalID(withdrawalID string) (*models.Gift, error)

	// MarkChargePaid advances chargeStatus unpaid -> paid. Returns false when
	// the charge is unknown or already paid.
	MarkChargePaid(chargeID string) (bool, error)

	// ClaimRedemption performs the spent false -> pending transition. Exactly
	// one of several concurrent claims for the same gift returns true.
	ClaimRedemption(id string) (bool, error)

	// AttachWithdrawal records the provider withdrawal on a claimed gift.
	AttachWithdrawal(id, withdrawalID, withdrawalInvoice string) error

	// ReleaseRedemption undoes a claim after a failed withdrawal, recording
	// the failure reason. Only a pending gift can be released.
	ReleaseRedemption(id, reason string) (bool, error)

	// ConfirmWithdrawal performs the terminal spent -> true transition and
	// records the fee. Returns false when the withdrawal is unknown or the
	// gift is already spent, so callers can fire side effects at most once.
	ConfirmWithdrawal(withdrawalID string, feeSats int64) (bool, error)

	// FailWithdrawal returns a pending gift to the redeemable pool. A gift
	// already confirmed spent is never regressed.
	FailWithdrawal(withdrawalID, reason string) (bool, error)

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gift repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateGift(gift *models.Gift) error {
	return r.db.Create(gift).Error
}

func (r *gormRepository) GetGift(id string) (*models.Gift, error) {
	var gift models.Gift
	if err := r.db.Where("id = ?", id).First(&gift).Error; err != nil {
		return nil, err
	}
	return &gift, nil
}

func (r *gormRepository) GetGiftByWithdrawalID(withdrawalID string) (*models.Gift, error) {
	var gift models.Gift
	if err := r.db.Where("withdrawal_id = ?", withdrawalID).First(&gift).Error; err != nil {
		return nil, err
	}
	return &gift, nil
}

func (r *gormRepository) MarkChargePaid(chargeID string) (bool, error) {
	tx := r.db.Model(&models.Gift{}).
		Where("charge_id = ? AND charge_status <> ?", chargeID, models.ChargeStatusPaid).
		Update("charge_status", models.ChargeStatusPaid)
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) ClaimRedemption(id string) (bool, error) {
	tx := r.db.Model(&models.Gift{}).
		Where("id = ? AND spent = ?", id, models.SpentNo).
		Update("spent", models.SpentPending)
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) AttachWithdrawal(id, withdrawalID, withdrawalInvoice string) error {
	return r.db.Model(&models.Gift{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"withdrawal_id":      withdrawalID,
			"withdrawal_invoice": withdrawalInvoice,
		}).Error
}

func (r *gormRepository) ReleaseRedemption(id, reason string) (bool, error) {
	tx := r.db.Model(&models.Gift{}).
		Where("id = ? AND spent = ?", id, models.SpentPending).
		Updates(map[string]interface{}{
			"spent": models.SpentNo,
			"error": reason,
		})
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) ConfirmWithdrawal(withdrawalID string, feeSats int64) (bool, error) {
	tx := r.db.Model(&models.Gift{}).
		Where("withdrawal_id = ? AND spent <> ?", withdrawalID, models.SpentYes).
		Updates(map[string]interface{}{
			"spent": models.SpentYes,
			"fee":   feeSats,
		})
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) FailWithdrawal(withdrawalID, reason string) (bool, error) {
	tx := r.db.Model(&models.Gift{}).
		Where("withdrawal_id = ? AND spent = ?", withdrawalID, models.SpentPending).
		Updates(map[string]interface{}{
			"spent": models.SpentNo,
			"error": reason,
		})
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
