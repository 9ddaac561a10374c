package formula

import "github.com/san-kum/parallelphysics/internal/dynamo"

func Balance(mass, c float64) (float64, error) { return DefaultEngine.Balance(mass, c) }

func Correlation(energy, mass float64) (float64, error) {
	return DefaultEngine.Correlation(energy, mass)
}

func Evolve(energy, timeStep float64) (float64, error) {
	return DefaultEngine.Evolve(energy, timeStep)
}

func Transform(state dynamo.State, force float64) (dynamo.State, error) {
	return DefaultEngine.Transform(state, force)
}

func ActionPotential(initial, potential, action float64) (float64, error) {
	return DefaultEngine.ActionPotential(initial, potential, action)
}

func Survival(needs, adaptability float64) (float64, error) {
	return DefaultEngine.Survival(needs, adaptability)
}

func Disperse(energyMap []float64) ([]float64, error) { return DefaultEngine.Disperse(energyMap) }

func IncreaseMass(energy, mass float64) (float64, error) {
	return DefaultEngine.IncreaseMass(energy, mass)
}

func EMC2(energy, mass float64) (float64, error) { return DefaultEngine.EMC2(energy, mass) }

func FieldMapping(userInput, quantumState float64) (float64, error) {
	return DefaultEngine.FieldMapping(userInput, quantumState)
}

func InputForce(vector []float64) (float64, error) { return DefaultEngine.InputForce(vector) }
