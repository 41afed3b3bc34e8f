package enrich

import (
	"go.uber.org/zap"

	"github.com/sells-group/leadwatch/internal/model"
)

// DefaultMinFundingAmount is the smallest funding amount accepted without a
// review flag.
const DefaultMinFundingAmount int64 = 10_000

// ValidateFundingAmount flags funding events whose amount is below
// DefaultMinFundingAmount.
func ValidateFundingAmount(amount *int64, eventType string) bool {
	return validateFundingAmount(amount, eventType, DefaultMinFundingAmount)
}

func validateFundingAmount(amount *int64, eventType string, floor int64) bool {
	if eventType != model.EventFunding || amount == nil {
		return true
	}
	if *amount < floor {
		zap.L().Warn("enrich: suspiciously small funding amount, manual review suggested",
			zap.Int64("amount", *amount),
			zap.Int64("floor", floor),
		)
		return false
	}
	return true
}
