// Package control provides feedback controllers for linear plants.
//
// Controllers implement the [dynamo.Controller] interface:
//
//   - [LQR]: constant-gain state feedback u = -K(x - target)
//   - [TimeVaryingLQR]: gain K(t) = R⁻¹BᵀP(t) read from a Riccati solution
//
// # Usage
//
//	p, _ := trajectory.MatrixCallableFromVectorTrajectory(tt, x, unique, P)
//	ctrl, _ := control.NewTimeVaryingLQR(p, B, R, nil)
//	sim := dynamo.New(control.NewLinearPlant(A, B), integ, ctrl)
package control
