package charging

import "time"

// Battery models an EV battery with a charge power limit and clamped state of
// charge.
type Battery struct {
	CapacityKWh  float64
	Soc          float64 // state of charge [0,1]
	ChargeRateKW float64 // maximum charging power
}

// Charge applies charging power for dt and returns the power actually
// absorbed after enforcing the rate limit and remaining headroom.
func (b *Battery) Charge(powerKW float64, dt time.Duration) float64 {
	hours := dt.Hours()
	if hours <= 0 || powerKW <= 0 {
		return 0
	}
	p := powerKW
	if p > b.ChargeRateKW {
		p = b.ChargeRateKW
	}
	headroom := (1 - b.Soc) * b.CapacityKWh
	energy := p * hours
	if energy > headroom {
		energy = headroom
		p = energy / hours
	}
	b.Soc += energy / b.CapacityKWh
	b.clamp()
	return p
}

// Drain removes energy for driving consumption. Energy beyond the stored
// charge is reported back as unmet kWh.
func (b *Battery) Drain(kwh float64) float64 {
	if kwh <= 0 {
		return 0
	}
	stored := b.Soc * b.CapacityKWh
	unmet := 0.0
	if kwh > stored {
		unmet = kwh - stored
		kwh = stored
	}
	b.Soc -= kwh / b.CapacityKWh
	b.clamp()
	return unmet
}

func (b *Battery) clamp() {
	if b.Soc < 0 {
		b.Soc = 0
	}
	if b.Soc > 1 {
		b.Soc = 1
	}
}
