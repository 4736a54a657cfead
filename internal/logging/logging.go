// Package logging is the thin collaborator interface the resolution core
// logs through. Per spec §1, the logging framework itself is an external
// collaborator; the core only depends on this interface, which the
// default implementation satisfies with the standard library "log"
// package the way the rest of the teacher codebase does.
package logging

import "log"

// Logger is the minimal surface the handler and bootstrap call through.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Standard is a Logger backed directly by the standard library logger.
type Standard struct{}

// Default is the package-level Logger used when callers don't supply
// their own.
var Default Logger = Standard{}

func (Standard) Debugf(format string, args ...interface{}) { log.Printf("DEBUG "+format, args...) }
func (Standard) Infof(format string, args ...interface{})  { log.Printf("INFO "+format, args...) }
func (Standard) Warnf(format string, args ...interface{})  { log.Printf("WARN "+format, args...) }
func (Standard) Errorf(format string, args ...interface{}) { log.Printf("ERROR "+format, args...) }
