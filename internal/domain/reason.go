package domain

// Reason codes emitted by the admission gate and consumed by the backoff policy.
const (
	ReasonOutOfWindow    = "out_of_window"
	ReasonBlockedHour    = "blocked_hour"
	ReasonBadChain       = "bad_chain"
	ReasonBadAddress     = "bad_address"
	ReasonTooYoung       = "too_young"
	ReasonTooOld         = "too_old"
	ReasonLowLiquidity   = "low_liquidity"
	ReasonLowVolume      = "low_volume"
	ReasonHighVolume     = "high_volume"
	ReasonMcapLow        = "mcap_low"
	ReasonMcapHigh       = "mcap_high"
	ReasonEarlyZeroLiq   = "early_zero_liq"
	ReasonHoldersPending = "holders_pending"
	ReasonLowHolders     = "low_holders"
	ReasonSellPressure   = "sell_pressure"
	ReasonOther          = "other"
)

// Engine-side reasons that never come from the gate.
const (
	ReasonLowProbability  = "low_probability"
	ReasonExecutionFailed = "execution_failed"
	ReasonAcquired        = "acquired"
	ReasonCapacity        = "capacity"
)

// IsHardReject reports reasons that must never be retried.
func IsHardReject(reason string) bool {
	switch reason {
	case ReasonTooOld, ReasonMcapHigh, ReasonBadChain, ReasonBadAddress:
		return true
	}
	return false
}

// IsSoftReject reports metric rejects that are archived for revival.
func IsSoftReject(reason string) bool {
	switch reason {
	case ReasonLowLiquidity, ReasonLowVolume, ReasonLowHolders, ReasonMcapLow:
		return true
	}
	return false
}
