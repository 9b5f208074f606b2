package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *PayoutsConfig {
	c := &PayoutsConfig{}
	c.Coin.Name = "testcoin"
	c.Payments.MinPayment = 1000
	c.Payments.Denomination = 100
	c.Payments.MaxAddresses = 10
	return c
}

func TestEnsureDefaults(t *testing.T) {
	c := &PayoutsConfig{}
	c.EnsureDefaults()

	require.Equal(t, "+", c.PoolServer.PaymentId.AddressSeparator)
	require.Equal(t, 10*time.Minute, c.Payments.Interval)
	require.Equal(t, 5*time.Second, c.Payments.StartDelay)
	require.Equal(t, 4, c.Payments.Parallelism)
	require.Equal(t, int64(1), c.Coin.Units)
}

func TestEnsureDefaultsKeepsExplicit(t *testing.T) {
	c := &PayoutsConfig{}
	c.PoolServer.PaymentId.AddressSeparator = "."
	c.Payments.Interval = time.Minute
	c.EnsureDefaults()

	require.Equal(t, ".", c.PoolServer.PaymentId.AddressSeparator)
	require.Equal(t, time.Minute, c.Payments.Interval)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	c := validConfig()
	c.Coin.Name = ""
	require.Error(t, c.Validate())

	c = validConfig()
	c.Payments.Denomination = 0
	require.Error(t, c.Validate())

	c = validConfig()
	c.Payments.MaxAddresses = 0
	require.Error(t, c.Validate())

	c = validConfig()
	c.Payments.MinPayment = 0
	require.Error(t, c.Validate())

	c = validConfig()
	c.Payments.MaxPayment = 500 // 低于 min_payment
	require.Error(t, c.Validate())

	c = validConfig()
	c.Payments.MaxPayment = 2000
	require.NoError(t, c.Validate())
}
