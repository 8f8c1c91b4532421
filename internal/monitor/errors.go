// internal/monitor/errors.go
package monitor

import "errors"

var (
	ErrAlreadyMonitored           = errors.New("address is already being monitored")
	ErrNotMonitored               = errors.New("address is not being monitored")
	ErrUpstreamSubscriptionFailed = errors.New("failed to create provider subscription")
	ErrInvalidRequest             = errors.New("invalid monitor request")
)
