package service

import (
	"regexp"
	"strconv"
	"strings"
)

// IntentKind discriminates the parsed chat intent.
type IntentKind string

const (
	IntentAccept  IntentKind = "accept"
	IntentDecline IntentKind = "decline"
	IntentCounter IntentKind = "counter"
	IntentConfirm IntentKind = "confirm"
	IntentCancel  IntentKind = "cancel"
	IntentStatus  IntentKind = "status"
	IntentOffers  IntentKind = "offers"
	IntentHelp    IntentKind = "help"
	IntentUnknown IntentKind = "unknown"
)

// Intent is a tagged union: Kind selects the variant, NegotiationID and Price
// are populated only for the variants that carry them.
type Intent struct {
	Kind          IntentKind
	NegotiationID string
	Price         float64
}

var (
	acceptRe  = regexp.MustCompile(`^accept[_ ]+(\S+)$`)
	declineRe = regexp.MustCompile(`^decline[_ ]+(\S+)$`)
	counterRe = regexp.MustCompile(`^counter[_ ]+(\S+?)[_ ]+\$?(\d+(?:\.\d+)?)$`)
)

// ParseIntent maps a free-text chat message onto an Intent. Action commands
// use the underscore forms the assistant itself suggests (accept_<id>,
// decline_<id>, counter_<id>_<price>); everything else is keyword-matched.
func ParseIntent(message string) Intent {
	text := strings.ToLower(strings.TrimSpace(message))

	if m := acceptRe.FindStringSubmatch(text); m != nil {
		return Intent{Kind: IntentAccept, NegotiationID: m[1]}
	}
	if m := declineRe.FindStringSubmatch(text); m != nil {
		return Intent{Kind: IntentDecline, NegotiationID: m[1]}
	}
	if m := counterRe.FindStringSubmatch(text); m != nil {
		price, err := strconv.ParseFloat(m[2], 64)
		if err == nil && price > 0 {
			return Intent{Kind: IntentCounter, NegotiationID: m[1], Price: price}
		}
	}

	switch text {
	case "confirm", "yes", "y", "do it":
		return Intent{Kind: IntentConfirm}
	case "cancel", "no", "n", "nevermind":
		return Intent{Kind: IntentCancel}
	}

	switch {
	case strings.Contains(text, "status"), strings.Contains(text, "negotiation"):
		return Intent{Kind: IntentStatus}
	case strings.Contains(text, "offer"):
		return Intent{Kind: IntentOffers}
	case strings.Contains(text, "help"), strings.Contains(text, "what can you"):
		return Intent{Kind: IntentHelp}
	}
	return Intent{Kind: IntentUnknown}
}
