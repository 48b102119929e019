package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenchly/service-booking/internal/domain"
)

func TestCallPayment_RetriesTransientFailure(t *testing.T) {
	calls := 0
	result, err := callPayment(func() (string, error) {
		calls++
		if calls == 1 {
			return "", errTransient
		}
		return "pi_ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_ok", result)
	assert.Equal(t, 2, calls)
}

func TestCallPayment_DomainRejectionIsPermanent(t *testing.T) {
	calls := 0
	_, err := callPayment(func() (string, error) {
		calls++
		return "", domain.NewAmountTooSmallError(50, 100)
	})

	assert.Equal(t, domain.KindAmountTooSmall, domain.KindOf(err))
	assert.Equal(t, 1, calls, "processor rejections must not be retried")
}

func TestCallPayment_GivesUpAfterSecondFailure(t *testing.T) {
	calls := 0
	_, err := callPayment(func() (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
}
