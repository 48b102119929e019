// Package logger builds the service's named zap loggers.
package logger

import (
	"go.uber.org/zap"
)

// NewNamed creates a logger for the given environment, named after the service.
// Development gets the human-readable console encoder; everything else logs
// structured JSON.
func NewNamed(env, serviceName string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if env == "development" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.Named(serviceName), nil
}
