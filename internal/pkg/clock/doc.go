// Package clock provides a tiny time abstraction.
//
// Code that derives or checks one-time codes depends on Clocker instead of
// calling time.Now directly, so tests can pin the time step.
package clock
