package utils

import "go.uber.org/zap"

// NewLogger builds the process logger: console output for development, JSON otherwise.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
