package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFloatToUint16(t *testing.T) {
	tests := []struct {
		input     float64
		expected  uint16
		shouldErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{65535, 65535, false},
		{65535.9, 65535, false}, // truncates, not rounds
		{-1, 0, true},
		{65536, 0, true},
		{math.MaxFloat64, 0, true},
	}
	for _, tt := range tests {
		result, err := SafeFloatToUint16(tt.input)
		if tt.shouldErr {
			assert.Error(t, err, "SafeFloatToUint16(%v)", tt.input)
			continue
		}
		assert.NoError(t, err, "SafeFloatToUint16(%v)", tt.input)
		assert.Equal(t, tt.expected, result)
	}
}

func TestSafeFloatToByte(t *testing.T) {
	tests := []struct {
		input     float64
		expected  byte
		shouldErr bool
	}{
		{0, 0, false},
		{255, 255, false},
		{-1, 0, true},
		{256, 0, true},
	}
	for _, tt := range tests {
		result, err := SafeFloatToByte(tt.input)
		if tt.shouldErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, result)
	}
}

func TestSafeFloatToSubscript(t *testing.T) {
	_, err := SafeFloatToSubscript(-1)
	assert.Error(t, err)

	v, err := SafeFloatToSubscript(5.9)
	assert.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestSafeFloatToLineNumber(t *testing.T) {
	_, err := SafeFloatToLineNumber(-1, 63999)
	assert.Error(t, err)
	_, err = SafeFloatToLineNumber(64000, 63999)
	assert.Error(t, err)

	v, err := SafeFloatToLineNumber(100, 63999)
	assert.NoError(t, err)
	assert.Equal(t, 100, v)
}

func TestAsInt16Truncates(t *testing.T) {
	assert.Equal(t, int16(5), AsInt16(5.9))
	assert.Equal(t, int16(-5), AsInt16(-5.9))
}
