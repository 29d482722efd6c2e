package negotiation

import "strings"

// Action is how a responder resolves the open offer: Accept, Reject or Counter.
type Action interface {
	isAction()
}

type Accept struct{}

type Reject struct{}

// Counter replaces the open offer with a new one from the responder. An empty
// Offer.Currency inherits the open offer's currency.
type Counter struct {
	Offer OfferInput
}

func (Accept) isAction()  {}
func (Reject) isAction()  {}
func (Counter) isAction() {}

// ParseAction decodes the wire name once; counter must be non-nil for "counter".
func ParseAction(name string, counter *OfferInput) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "accept":
		return Accept{}, nil
	case "reject":
		return Reject{}, nil
	case "counter":
		if counter == nil {
			return nil, ErrInvalidAmount
		}
		return Counter{Offer: *counter}, nil
	default:
		return nil, ErrInvalidAction
	}
}
