package usb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindKnownModel(t *testing.T) {
	m := FindKnownModel(EpsonVendorID, 0x0e15)
	require.NotNil(t, m)
	assert.Equal(t, "TM-T88VI", m.Name)
	assert.Equal(t, 48, m.MaxCharsPerLine)
	assert.True(t, m.SupportsPartialCut)

	m = FindKnownModel(EpsonVendorID, 0x0e28)
	require.NotNil(t, m)
	assert.Equal(t, "TM-T88VI", m.Name)

	m = FindKnownModel(EpsonVendorID, 0x0e36)
	require.NotNil(t, m)
	assert.Equal(t, "TM-M50", m.Name)
}

func TestFindKnownModelRejectsOtherVendors(t *testing.T) {
	assert.Nil(t, FindKnownModel(0x1234, 0x0e15))
	assert.Nil(t, FindKnownModel(EpsonVendorID, 0xffff))
}

func TestMaxCharsFor(t *testing.T) {
	assert.Equal(t, 48, MaxCharsFor(EpsonVendorID, 0x0e36))
	assert.Equal(t, DefaultMaxChars, MaxCharsFor(EpsonVendorID, 0x9999))
	assert.Equal(t, DefaultMaxChars, MaxCharsFor(0x1234, 0x0e15))
}
