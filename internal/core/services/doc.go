// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Outside the standard library they
// only use the golang.org/x concurrency packages and uuid for run ids.
package services
