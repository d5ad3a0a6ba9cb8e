package signaling

// State is the negotiation state of a Negotiator.
type State int

// Negotiation states.
const (
	StateIdle State = iota
	StateOfferCreated
	StateRemoteOfferSet
	StateAnswerCreated
	StateNegotiated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOfferCreated:
		return "offer-created"
	case StateRemoteOfferSet:
		return "remote-offer-set"
	case StateAnswerCreated:
		return "answer-created"
	case StateNegotiated:
		return "negotiated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
