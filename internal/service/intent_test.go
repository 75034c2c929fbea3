package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		message string
		want    Intent
	}{
		{"accept_neg_1a2b3c4d", Intent{Kind: IntentAccept, NegotiationID: "neg_1a2b3c4d"}},
		{"Accept neg_1a2b3c4d", Intent{Kind: IntentAccept, NegotiationID: "neg_1a2b3c4d"}},
		{"decline_neg_1a2b3c4d", Intent{Kind: IntentDecline, NegotiationID: "neg_1a2b3c4d"}},
		{"counter_neg_1a2b3c4d_450", Intent{Kind: IntentCounter, NegotiationID: "neg_1a2b3c4d", Price: 450}},
		{"counter neg_1a2b3c4d $325.50", Intent{Kind: IntentCounter, NegotiationID: "neg_1a2b3c4d", Price: 325.5}},
		{"confirm", Intent{Kind: IntentConfirm}},
		{"yes", Intent{Kind: IntentConfirm}},
		{"cancel", Intent{Kind: IntentCancel}},
		{"no", Intent{Kind: IntentCancel}},
		{"what's the status?", Intent{Kind: IntentStatus}},
		{"show my negotiations", Intent{Kind: IntentStatus}},
		{"any offers?", Intent{Kind: IntentOffers}},
		{"help", Intent{Kind: IntentHelp}},
		{"what can you do", Intent{Kind: IntentHelp}},
		{"hello there", Intent{Kind: IntentUnknown}},
		{"counter_neg_1_abc", Intent{Kind: IntentUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIntent(tt.message))
		})
	}
}
