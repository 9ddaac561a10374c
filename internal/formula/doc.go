// Package formula is the stateless formula library consumed by the physics
// update engine.
//
// Every function is pure: inputs are never mutated and the same inputs always
// yield the same output. Out-of-domain inputs and non-finite results are
// reported as [dynamo.ErrNumericDomain].
//
// Closed forms:
//
//	Balance(m, c)            = c * ln(1 + m/c)
//	Correlation(e, m)        = tanh(e / (m * CorrelationScale))
//	Evolve(e, t)             = e * exp(-DecayRate * t)
//	Transform(s, f)          = R_(n-2,n-1)(f) ... R_(1,2)(f) R_(0,1)(f) s
//	ActionPotential(i, p, a) = i + p * (1 - exp(-a))
//	Survival(n, a)           = a*n + (1-a)*sqrt(n)
//	Disperse(e)_i            = e_i / sum(e)
//	IncreaseMass(e, m)       = m + e * MassConversion
//	EMC2(e, m)               = e / (m * c^2)
//	FieldMapping(u, q)       = q * tanh(u)
//	InputForce(v)            = |v|
//
// R_(i,j)(f) is the plane rotation taking (s_i, s_j) to
// (s_i cos f + s_j sin f, s_j cos f - s_i sin f).
package formula
