package eta

// Estimator turns an ETA into a point estimate and a deviation.
type Estimator struct {
	Bias Bias
	// RiskAware makes each risk level above 1 pessimize the bias by one step.
	RiskAware bool
}

// NewEstimator returns a risk-aware estimator with the given bias.
func NewEstimator(b Bias) Estimator {
	return Estimator{Bias: b, RiskAware: true}
}

// BiasFor returns the bias applied to work whose outcome has the given risk.
// A risk of 0 means unset.
func (est Estimator) BiasFor(risk int) Bias {
	b := est.Bias
	if b == 0 {
		b = None
	}
	if est.RiskAware {
		for i := 1; i < risk; i++ {
			b = b.Worse()
		}
	}
	return b
}

// Estimate returns the expected effort in hours and its deviation
// ("two sigma" rule). ok is false when e carries no effort at all.
func (est Estimator) Estimate(e ETA, risk int) (avg, dev float64, ok bool) {
	if e.Min == nil {
		if e.Real == nil {
			return 0, 0, false
		}
		return *e.Real, 0, true
	}
	lo := *e.Min
	hi := lo
	if e.Max != nil {
		hi = *e.Max
	}
	k := est.BiasFor(risk).Weight()
	return k*lo + (1-k)*hi, (hi - lo) / 4, true
}
