package application

import (
	"errors"

	"github.com/wrenchly/service-booking/internal/domain"
)

// callPayment invokes one payment processor call, retrying once when the
// failure looks transient. Domain rejections (amount too small, unknown
// intent, state conflicts) are permanent and returned immediately.
func callPayment[T any](fn func() (T, error)) (T, error) {
	out, err := fn()
	if err == nil {
		return out, nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return out, err
	}
	return fn()
}
