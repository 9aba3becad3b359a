package common_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"disorderbook/internal/common"
)

func TestBackendErrorCode(t *testing.T) {
	assert.Equal(t, common.ErrCodeTooManyOrders, common.BackendErrorCode(common.ErrTooManyOrders))
	assert.Equal(t, common.ErrCodeSillyValue, common.BackendErrorCode(common.ErrSillyValue))
	assert.Equal(t, common.ErrCodeAccountCap, common.BackendErrorCode(common.ErrAccountCap))
}

func TestBackendErrorCode_PanicsOnUnknownError(t *testing.T) {
	assert.Panics(t, func() {
		common.BackendErrorCode(errors.New("not an admission error"))
	})
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "buy", common.Buy.String())
	assert.Equal(t, "sell", common.Sell.String())
	assert.Equal(t, "unknown", common.Direction(9).String())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "limit", common.Limit.String())
	assert.Equal(t, "market", common.Market.String())
	assert.Equal(t, "fill-or-kill", common.FOK.String())
	assert.Equal(t, "immediate-or-cancel", common.IOC.String())
	assert.Equal(t, "unknown", common.Kind(0).String())
}
