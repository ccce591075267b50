package domain

// ClientState is the one-byte marker the search index persists on our behalf.
// The index never interprets it; it hands back exactly what the last
// successful batch attached.
type ClientState byte

// Well-known client states.
const (
	// ClientStateNone means no full sync has completed since the last reset.
	ClientStateNone ClientState = 0x00

	// ClientStateFinished means the last batch completed and the index is caught up.
	ClientStateFinished ClientState = 0x01

	// ClientStateUnknown is returned by DecodeClientState for anything it does
	// not recognise. It is never encoded.
	ClientStateUnknown ClientState = 0xFF
)

// Encode returns the wire form of the state.
func (s ClientState) Encode() []byte {
	return []byte{byte(s)}
}

// String returns the string representation.
func (s ClientState) String() string {
	switch s {
	case ClientStateNone:
		return "none"
	case ClientStateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// DecodeClientState maps stored bytes back to a ClientState.
// Absent, empty, oversized or unrecognised values decode to ClientStateUnknown.
func DecodeClientState(data []byte) ClientState {
	if len(data) != 1 {
		return ClientStateUnknown
	}
	switch ClientState(data[0]) {
	case ClientStateNone:
		return ClientStateNone
	case ClientStateFinished:
		return ClientStateFinished
	default:
		return ClientStateUnknown
	}
}

// IsFinished reports whether stored bytes mark a completed sync.
// Everything other than the finished tag triggers a resync.
func IsFinished(data []byte) bool {
	return DecodeClientState(data) == ClientStateFinished
}
