package svm

import "math"

// plattFit fits the sigmoid P(y=1|f) = 1 / (1 + exp(A*f + B)) to the
// training decision values using the robust Newton iteration from
// Lin, Lin and Weng, "A note on Platt's probabilistic outputs for
// support vector machines" (2007). Labels are ±1.
func plattFit(decisions, labels []float64) (a, b float64) {
	n := len(decisions)
	var prior1, prior0 float64
	for _, y := range labels {
		if y > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	targets := make([]float64, n)
	for i, y := range labels {
		if y > 0 {
			targets[i] = hiTarget
		} else {
			targets[i] = loTarget
		}
	}

	a = 0
	b = math.Log((prior0 + 1) / (prior1 + 1))

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)

	fval := objective(decisions, targets, a, b)
	for iter := 0; iter < maxIter; iter++ {
		// Gradient and Hessian of the negative log-likelihood.
		var h11, h22, h21, g1, g2 float64
		h11, h22 = sigma, sigma
		for i := 0; i < n; i++ {
			fApB := decisions[i]*a + b
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1 + math.Exp(-fApB))
				q = 1 / (1 + math.Exp(-fApB))
			} else {
				p = 1 / (1 + math.Exp(fApB))
				q = math.Exp(fApB) / (1 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += decisions[i] * decisions[i] * d2
			h22 += d2
			h21 += decisions[i] * d2
			d1 := targets[i] - p
			g1 += decisions[i] * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		// Newton direction with backtracking line search.
		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		stepSize := 1.0
		for stepSize >= minStep {
			newA := a + stepSize*dA
			newB := b + stepSize*dB
			newF := objective(decisions, targets, newA, newB)
			if newF < fval+1e-4*stepSize*gd {
				a, b, fval = newA, newB, newF
				break
			}
			stepSize /= 2
		}
		if stepSize < minStep {
			break
		}
	}
	return a, b
}

// objective is the negative log-likelihood of the calibrated sigmoid.
func objective(decisions, targets []float64, a, b float64) float64 {
	var fval float64
	for i := range decisions {
		fApB := decisions[i]*a + b
		if fApB >= 0 {
			fval += targets[i]*fApB + math.Log(1+math.Exp(-fApB))
		} else {
			fval += (targets[i]-1)*fApB + math.Log(1+math.Exp(fApB))
		}
	}
	return fval
}

// plattProb applies the calibrated sigmoid to a decision value.
func plattProb(decision, a, b float64) float64 {
	fApB := decision*a + b
	if fApB >= 0 {
		return math.Exp(-fApB) / (1 + math.Exp(-fApB))
	}
	return 1 / (1 + math.Exp(fApB))
}
