package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientState_Encode(t *testing.T) {
	assert.Equal(t, []byte{0x00}, ClientStateNone.Encode())
	assert.Equal(t, []byte{0x01}, ClientStateFinished.Encode())
}

func TestClientState_EncodeReturnsFreshSlice(t *testing.T) {
	a := ClientStateFinished.Encode()
	a[0] = 0x7F

	assert.Equal(t, []byte{0x01}, ClientStateFinished.Encode())
}

func TestDecodeClientState(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected ClientState
	}{
		{"none", []byte{0x00}, ClientStateNone},
		{"finished", []byte{0x01}, ClientStateFinished},
		{"nil", nil, ClientStateUnknown},
		{"empty", []byte{}, ClientStateUnknown},
		{"unknown tag", []byte{0x02}, ClientStateUnknown},
		{"unknown sentinel", []byte{0xFF}, ClientStateUnknown},
		{"two bytes", []byte{0x01, 0x01}, ClientStateUnknown},
		{"text", []byte("finished"), ClientStateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeClientState(tt.data))
		})
	}
}

func TestIsFinished(t *testing.T) {
	assert.True(t, IsFinished([]byte{0x01}))
	assert.False(t, IsFinished([]byte{0x00}))
	assert.False(t, IsFinished(nil))
	assert.False(t, IsFinished([]byte{0x01, 0x00}))
}

func TestClientState_RoundTrip(t *testing.T) {
	for _, s := range []ClientState{ClientStateNone, ClientStateFinished} {
		assert.Equal(t, s, DecodeClientState(s.Encode()))
	}
}

func TestClientState_String(t *testing.T) {
	assert.Equal(t, "none", ClientStateNone.String())
	assert.Equal(t, "finished", ClientStateFinished.String())
	assert.Equal(t, "unknown", ClientStateUnknown.String())
	assert.Equal(t, "unknown", ClientState(0x42).String())
}
