package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownRole is returned for an envelope role tag other than offer or answer.
	ErrUnknownRole = errors.New("unknown envelope role")

	// ErrMissingRole is returned when an envelope has no role tag.
	ErrMissingRole = errors.New("envelope role is missing")

	// ErrMissingSDP is returned when an envelope has no sdp field.
	ErrMissingSDP = errors.New("envelope sdp is missing")
)

// Role tags the session description carried by an Envelope.
type Role int

// Envelope roles, as encoded on the wire.
const (
	RoleOffer  Role = 0
	RoleAnswer Role = 1
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleOffer || r == RoleAnswer
}

func (r Role) String() string {
	switch r {
	case RoleOffer:
		return "offer"
	case RoleAnswer:
		return "answer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Envelope is one session description exchanged between peers.
type Envelope struct {
	Role Role
	SDP  string
}

type wireEnvelope struct {
	OfferOrAnswer *Role   `json:"offerOrAnswer"`
	SDP           *string `json:"sdp"`
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.Role.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(e.Role))
	}
	role, sdp := e.Role, e.SDP
	return json.Marshal(wireEnvelope{OfferOrAnswer: &role, SDP: &sdp})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown fields are ignored.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.OfferOrAnswer == nil {
		return ErrMissingRole
	}
	if !w.OfferOrAnswer.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRole, int(*w.OfferOrAnswer))
	}
	if w.SDP == nil {
		return ErrMissingSDP
	}
	e.Role = *w.OfferOrAnswer
	e.SDP = *w.SDP
	return nil
}

// Marshal encodes e to its wire form.
func Marshal(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Parse decodes an Envelope from its wire form.
func Parse(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
