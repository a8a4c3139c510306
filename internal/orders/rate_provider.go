package orders

import "context"

// StaticRateProvider satisfies RateProvider from a fixed percent read
// once at startup from config.Commission.RatePercent — the spec treats
// the commission rate as a system setting (§4.3: "Reads
// commissionRatePct from system settings"), not part of the mutable
// PromoConfig singleton, so no cache/invalidation story is needed here.
type StaticRateProvider int

func (p StaticRateProvider) CommissionRatePercent(context.Context) (int, error) {
	return int(p), nil
}
