package service

import (
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shopspring/decimal"
)

// AutoDecision is what a seller's settings would do with a fresh offer.
type AutoDecision struct {
	Action       RespondAction
	CounterOffer decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// DecideAutoResponse applies seller thresholds in priority order:
// accept, then reject, then counter. ok is false when nothing fires.
func DecideAutoResponse(settings *model.BargainSettings, b *model.BargainRequest) (AutoDecision, bool) {
	if settings == nil || b == nil {
		return AutoDecision{}, false
	}
	discount := b.DiscountPercentage()

	if settings.EnableAutoAccept && settings.AutoAcceptThreshold != nil &&
		discount.LessThanOrEqual(*settings.AutoAcceptThreshold) {
		return AutoDecision{Action: ActionAccept}, true
	}
	if settings.EnableAutoReject && settings.AutoRejectThreshold != nil &&
		discount.GreaterThanOrEqual(*settings.AutoRejectThreshold) {
		return AutoDecision{Action: ActionReject}, true
	}
	if settings.EnableAutoCounter && settings.CounterOfferPercentage != nil {
		price := b.OriginalPrice.Mul(hundred.Sub(*settings.CounterOfferPercentage).Div(hundred)).Round(2)
		if price.IsPositive() {
			return AutoDecision{Action: ActionCounter, CounterOffer: price}, true
		}
	}
	return AutoDecision{}, false
}
