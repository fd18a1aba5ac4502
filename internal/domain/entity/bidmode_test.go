package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestNewBidModeSetting_AutoRequiresPositiveIncrement(t *testing.T) {
	_, err := NewBidModeSetting("bidder-1", "auction-1", BidModeAuto, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewBidModeSetting("bidder-1", "auction-1", BidModeAuto, floatPtr(0))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewBidModeSetting("bidder-1", "auction-1", BidModeAuto, floatPtr(-5))
	assert.ErrorIs(t, err, ErrInvalidInput)

	setting, err := NewBidModeSetting("bidder-1", "auction-1", BidModeAuto, floatPtr(10))
	require.NoError(t, err)
	increment, ok := setting.Increment()
	require.True(t, ok)
	assert.Equal(t, 10.0, increment)
}

func TestNewBidModeSetting_ManualRejectsIncrement(t *testing.T) {
	_, err := NewBidModeSetting("bidder-1", "auction-1", BidModeManual, floatPtr(10))
	assert.ErrorIs(t, err, ErrInvalidInput)

	setting, err := NewBidModeSetting("bidder-1", "auction-1", BidModeManual, nil)
	require.NoError(t, err)
	_, ok := setting.Increment()
	assert.False(t, ok)
}

func TestNewBidModeSetting_UnknownMode(t *testing.T) {
	_, err := NewBidModeSetting("bidder-1", "auction-1", BidMode("TURBO"), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewBidModeSetting_RequiredIDs(t *testing.T) {
	_, err := NewBidModeSetting("", "auction-1", BidModeManual, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewBidModeSetting("bidder-1", "", BidModeManual, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
