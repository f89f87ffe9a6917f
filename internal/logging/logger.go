// Package logging wires up structured logging via zap, replacing the raw
// log.Printf calls used throughout the teacher corpus.
package logging

import "go.uber.org/zap"

// New builds a production zap logger, or a development logger with
// human-readable output when dev is true.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
