package metrics

import "github.com/san-kum/parallelphysics/internal/dynamo"

// MassGrowth is the ratio of the latest total mass to the first observed.
type MassGrowth struct {
	name    string
	initial float64
	current float64
	samples int
}

func NewMassGrowth() *MassGrowth {
	return &MassGrowth{name: "mass_growth"}
}

func (m *MassGrowth) Name() string { return m.name }

func (m *MassGrowth) Observe(frame int, t float64, objects []dynamo.Snapshot) {
	total := 0.0
	for _, o := range objects {
		total += o.Mass
	}
	if m.samples == 0 {
		m.initial = total
	}
	m.current = total
	m.samples++
}

func (m *MassGrowth) Value() float64 {
	if m.initial == 0 {
		return 1
	}
	return m.current / m.initial
}

func (m *MassGrowth) Reset() {
	m.initial = 0
	m.current = 0
	m.samples = 0
}

// Displacement is the mean distance travelled along z since the first frame.
type Displacement struct {
	name  string
	start []float64
	mean  float64
}

func NewDisplacement() *Displacement {
	return &Displacement{name: "displacement"}
}

func (d *Displacement) Name() string { return d.name }

func (d *Displacement) Observe(frame int, t float64, objects []dynamo.Snapshot) {
	if d.start == nil {
		d.start = make([]float64, len(objects))
		for i, o := range objects {
			d.start[i] = o.Position[2]
		}
	}
	if len(objects) == 0 {
		return
	}

	sum := 0.0
	for i, o := range objects {
		if i < len(d.start) {
			sum += o.Position[2] - d.start[i]
		}
	}
	d.mean = sum / float64(len(objects))
}

func (d *Displacement) Value() float64 { return d.mean }

func (d *Displacement) Reset() {
	d.start = nil
	d.mean = 0
}
