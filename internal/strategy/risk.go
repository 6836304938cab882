package strategy

// riskTracker accumulates realized PnL against a maximum-loss threshold
// (a negative number). Violation latches: once set it is never cleared for
// the rest of the run. Not safe for concurrent use; callers hold their own
// lock.
type riskTracker struct {
	realizedPnL float64
	peakPnL     float64
	maxDrawdown float64
	maxLoss     float64
	violated    bool
}

func newRiskTracker(maxLoss float64) riskTracker {
	return riskTracker{maxLoss: maxLoss}
}

// add applies a PnL delta and updates peak, drawdown, and the violation
// latch.
func (r *riskTracker) add(delta float64) {
	r.realizedPnL += delta
	if r.realizedPnL > r.peakPnL {
		r.peakPnL = r.realizedPnL
	}
	if dd := r.peakPnL - r.realizedPnL; dd > r.maxDrawdown {
		r.maxDrawdown = dd
	}
	if r.realizedPnL <= r.maxLoss {
		r.violated = true
	}
}
