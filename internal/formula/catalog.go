package formula

import (
	"fmt"
	"sort"
)

// Entry describes one scalar formula by name so reporting code can sample it
// without knowing its signature.
type Entry struct {
	Name   string
	Params []string
	Eval   func(args []float64) (float64, error)
}

// Call evaluates the entry after checking the argument count.
func (e Entry) Call(args ...float64) (float64, error) {
	if len(args) != len(e.Params) {
		return 0, fmt.Errorf("%s: want %d args %v, got %d", e.Name, len(e.Params), e.Params, len(args))
	}
	return e.Eval(args)
}

// Catalog lists the scalar formulas of eng keyed by name.
func (eng Engine) Catalog() map[string]Entry {
	entries := []Entry{
		{"balance", []string{"mass", "const"}, func(a []float64) (float64, error) { return eng.Balance(a[0], a[1]) }},
		{"correlation", []string{"energy", "mass"}, func(a []float64) (float64, error) { return eng.Correlation(a[0], a[1]) }},
		{"evolve", []string{"energy", "time"}, func(a []float64) (float64, error) { return eng.Evolve(a[0], a[1]) }},
		{"action", []string{"initial", "potential", "action"}, func(a []float64) (float64, error) {
			return eng.ActionPotential(a[0], a[1], a[2])
		}},
		{"survival", []string{"needs", "adaptability"}, func(a []float64) (float64, error) { return eng.Survival(a[0], a[1]) }},
		{"mass", []string{"energy", "mass"}, func(a []float64) (float64, error) { return eng.IncreaseMass(a[0], a[1]) }},
		{"emc2", []string{"energy", "mass"}, func(a []float64) (float64, error) { return eng.EMC2(a[0], a[1]) }},
		{"field", []string{"input", "state"}, func(a []float64) (float64, error) { return eng.FieldMapping(a[0], a[1]) }},
	}

	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return m
}

// Names returns the catalog names in sorted order.
func (eng Engine) Names() []string {
	cat := eng.Catalog()
	names := make([]string, 0, len(cat))
	for name := range cat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
