package gifts

import "github.com/lngifts/LightningGifts/app/models"

// CreateGiftInput is the validated input of gift creation. Amount arrives as
// a float because JSON has no integer type; whole-ness is checked explicitly.
type CreateGiftInput struct {
	Amount        float64 `validate:"min=100,max=500000"`
	SenderName    string  `validate:"max=15"`
	SenderMessage string  `validate:"max=100"`
	Notify        string  `validate:"omitempty,url,max=255"`
	VerifyCode    string  `validate:"omitempty,len=4,number"`
}

// CreateGiftResult carries the persisted gift plus the encoded LNURL the
// creation response exposes.
type CreateGiftResult struct {
	Gift  *models.Gift
	LNURL string
}

// GiftDetails is the answer to a gift query. Restricted is set when the gift
// is PIN-gated and the caller did not present the matching code; the handler
// must then withhold everything except amount, charge status and spent state.
type GiftDetails struct {
	Gift       *models.Gift
	Restricted bool
}
