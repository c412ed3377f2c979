// Package dynamo provides the numeric side of a vector-form dynamical system.
//
// The package defines the interfaces the rest of the module integrates
// against:
//
//   - [State]: the unique entries of a matrix unknown, or a plant state
//   - [System]: dX/dt = f(X, u, t)
//   - [Integrator], [AdaptiveIntegrator]: one step of f
//   - [Controller], [Observer]: hooks called once per step
//   - [Simulator]: runs forward or backward in time
//
// # Example
//
//	ds, _ := systems.FromMatrixDE(dP, P)
//	sys, _ := ds.Compile()
//	s := dynamo.New(sys, integrators.NewRK4(), nil)
//	result, _ := s.Run(ctx, x0, cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Compiled systems are, and may be
// shared between simulators.
package dynamo
