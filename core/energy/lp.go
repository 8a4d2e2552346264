package energy

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible indicates the system has no dispatch satisfying all
// balances and bounds.
var ErrInfeasible = errors.New("energy system infeasible")

// lpSolve points to the simplex call so tests can simulate solver failures.
var lpSolve = solveLP

type varKind int

const (
	varSource varKind = iota
	varSink
	varCharge
	varDischarge
	varLevel
	varConverter
)

// variable is one LP column with its bounds and objective weight.
type variable struct {
	label string
	kind  varKind
	step  int
	cost  float64 // objective coefficient, already scaled by step hours
	lb    float64
	ub    float64 // math.Inf(1) when unbounded
}

// problem is the assembled LP before conversion to standard form.
type problem struct {
	vars []variable
	// eq holds equality rows as sparse coefficient maps plus RHS.
	eqCoeffs []map[int]float64
	eqRHS    []float64
}

func (p *problem) addVar(v variable) int {
	p.vars = append(p.vars, v)
	return len(p.vars) - 1
}

func (p *problem) addEq(coeffs map[int]float64, rhs float64) {
	p.eqCoeffs = append(p.eqCoeffs, coeffs)
	p.eqRHS = append(p.eqRHS, rhs)
}

// upperBound resolves the per-step cap of a dispatchable flow.
func upperBound(f Flow, t int) float64 {
	switch {
	case f.Max != nil:
		return f.Max.Values[t] * f.NominalKW
	case f.NominalKW > 0:
		return f.NominalKW
	default:
		return math.Inf(1)
	}
}

// build assembles the LP. Fixed flows are substituted as constants on the
// bus balance right-hand side instead of becoming variables.
func (s *System) build() (*problem, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	T := s.Horizon.Periods
	dtH := s.Horizon.Step.Hours()
	p := &problem{}

	// balance[bus][t] collects coefficients; rhs[bus][t] the constant part.
	balance := make(map[string][]map[int]float64, len(s.Buses))
	rhs := make(map[string][]float64, len(s.Buses))
	for _, b := range s.Buses {
		balance[b] = make([]map[int]float64, T)
		rhs[b] = make([]float64, T)
		for t := 0; t < T; t++ {
			balance[b][t] = make(map[int]float64)
		}
	}
	add := func(bus string, t, idx int, coeff float64) {
		balance[bus][t][idx] += coeff
	}

	for _, src := range s.Sources {
		for t := 0; t < T; t++ {
			if src.Flow.Fix != nil {
				rhs[src.Bus][t] -= src.Flow.Fix.Values[t] * src.Flow.NominalKW
				continue
			}
			ub := upperBound(src.Flow, t)
			if ub == 0 {
				continue // unavailable this step, the flow is fixed at zero
			}
			idx := p.addVar(variable{
				label: src.Label, kind: varSource, step: t,
				cost: src.Flow.CostPerKWh * dtH,
				ub:   ub,
			})
			add(src.Bus, t, idx, 1)
		}
	}
	for _, sk := range s.Sinks {
		for t := 0; t < T; t++ {
			if sk.Flow.Fix != nil {
				rhs[sk.Bus][t] += sk.Flow.Fix.Values[t] * sk.Flow.NominalKW
				continue
			}
			ub := upperBound(sk.Flow, t)
			if ub == 0 {
				continue
			}
			idx := p.addVar(variable{
				label: sk.Label, kind: varSink, step: t,
				cost: sk.Flow.CostPerKWh * dtH,
				ub:   ub,
			})
			add(sk.Bus, t, idx, -1)
		}
	}

	for _, st := range s.Storages {
		effC := st.ChargeEff
		if effC == 0 {
			effC = 1
		}
		effD := st.DischargeEff
		if effD == 0 {
			effD = 1
		}
		chargeUB := math.Inf(1)
		if st.ChargeKW > 0 {
			chargeUB = st.ChargeKW
		}
		dischargeUB := math.Inf(1)
		if st.DischargeKW > 0 {
			dischargeUB = st.DischargeKW
		}
		charge := make([]int, T)
		discharge := make([]int, T)
		level := make([]int, T)
		for t := 0; t < T; t++ {
			charge[t] = p.addVar(variable{label: st.Label, kind: varCharge, step: t, ub: chargeUB})
			discharge[t] = p.addVar(variable{label: st.Label, kind: varDischarge, step: t, ub: dischargeUB})
			level[t] = p.addVar(variable{
				label: st.Label, kind: varLevel, step: t,
				lb: st.MinLevel * st.CapacityKWh,
				ub: st.MaxLevel * st.CapacityKWh,
			})
			add(st.Bus, t, discharge[t], 1)
			add(st.Bus, t, charge[t], -1)
		}
		for t := 0; t < T; t++ {
			loss := 0.0
			if st.LossKWh != nil {
				loss = st.LossKWh.Values[t]
			}
			coeffs := map[int]float64{
				level[t]:     1,
				charge[t]:    -effC * dtH,
				discharge[t]: dtH / effD,
			}
			r := -loss
			if t == 0 {
				r += st.InitialLevel * st.CapacityKWh
			} else {
				coeffs[level[t-1]] = -1
			}
			p.addEq(coeffs, r)
		}
		if st.Balanced {
			p.addEq(map[int]float64{level[T-1]: 1}, st.InitialLevel*st.CapacityKWh)
		}
	}

	for _, c := range s.Converters {
		for t := 0; t < T; t++ {
			ub := math.Inf(1)
			if c.MaxKW > 0 {
				ub = c.MaxKW
			}
			if c.Max != nil {
				ub = c.Max.Values[t] * c.MaxKW
			}
			if ub == 0 {
				continue
			}
			idx := p.addVar(variable{
				label: c.Label, kind: varConverter, step: t,
				cost: c.CostPerKWh * dtH,
				ub:   ub,
			})
			add(c.FromBus, t, idx, -1)
			add(c.ToBus, t, idx, c.Efficiency)
		}
	}

	for _, b := range s.Buses {
		for t := 0; t < T; t++ {
			if len(balance[b][t]) == 0 {
				// Bus with only fixed flows: the constants must cancel.
				if math.Abs(rhs[b][t]) > 1e-9 {
					return nil, fmt.Errorf("bus %s step %d: %w", b, t, ErrInfeasible)
				}
				continue
			}
			p.addEq(balance[b][t], rhs[b][t])
		}
	}
	return p, nil
}

// solveLP brings the problem into simplex standard form by hand: every
// variable is shifted by its lower bound so it becomes nonnegative, and each
// finite upper bound turns into one slack column. This keeps the matrix at
// roughly a quarter of what lp.Convert's free-variable split would produce,
// which decides whether a multi-day horizon terminates.
func solveLP(p *problem) ([]float64, float64, error) {
	n := len(p.vars)
	slacks := 0
	for _, v := range p.vars {
		if !math.IsInf(v.ub, 1) {
			slacks++
		}
	}
	rows := len(p.eqCoeffs) + slacks
	cols := n + slacks

	c := make([]float64, cols)
	offset := 0.0
	for i, v := range p.vars {
		c[i] = v.cost
		offset += v.cost * v.lb
	}

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	for r, coeffs := range p.eqCoeffs {
		rhs := p.eqRHS[r]
		for idx, coeff := range coeffs {
			a.Set(r, idx, coeff)
			rhs -= coeff * p.vars[idx].lb
		}
		b[r] = rhs
	}
	row := len(p.eqCoeffs)
	col := n
	for i, v := range p.vars {
		if math.IsInf(v.ub, 1) {
			continue
		}
		a.Set(row, i, 1)
		a.Set(row, col, 1)
		b[row] = v.ub - v.lb
		row++
		col++
	}

	opt, sol, err := lp.Simplex(c, a, b, 1e-7, nil)
	if err != nil {
		return nil, 0, err
	}
	out := make([]float64, n)
	for i, v := range p.vars {
		out[i] = sol[i] + v.lb
	}
	return out, opt + offset, nil
}
