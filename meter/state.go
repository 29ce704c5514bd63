package meter

// State of the frame in flight.
type State uint8

const (
	StateAwaitingStart State = iota
	StateAccumulating
	StateValidated
	StateDecrypted
	StateDecoding
	StatePublished
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting-start"
	case StateAccumulating:
		return "accumulating"
	case StateValidated:
		return "validated"
	case StateDecrypted:
		return "decrypted"
	case StateDecoding:
		return "decoding"
	case StatePublished:
		return "published"
	case StateDiscarded:
		return "discarded"
	}
	return "invalid"
}
