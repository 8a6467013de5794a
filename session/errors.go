package session

import "fmt"

// Kind is the closed error taxonomy the signaling front-end maps to HTTP
// status codes; it never grows a new value without a matching status-code
// decision at the edge.
type Kind int

const (
	Internal Kind = iota
	Authorization
	NotFound
	BadOffer
	Transport
	EncoderFailure
)

func (k Kind) String() string {
	switch k {
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	case BadOffer:
		return "bad_offer"
	case Transport:
		return "transport"
	case EncoderFailure:
		return "encoder_failure"
	default:
		return "internal"
	}
}

// Error is a typed, taggable failure: the signaling front-end switches on
// Kind to pick a status code without parsing message text.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "begin", "end"
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("session: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
