package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/i18n"
	"github.com/Proton-105/queue-bot/internal/notify"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	m, err := i18n.Load("en")
	require.NoError(t, err)
	return New(m.Default())
}

func TestBuilder_QueueStatus(t *testing.T) {
	b := newBuilder(t)
	l := &domain.Listing{ID: "L1", Title: "Lamp", Seller: 9, Queue: []int64{1, 2, 3}}

	assert.Equal(t, "You're first in line for Lamp.", b.QueueStatus(l, 1))
	assert.Equal(t, "You're number 3 in line for Lamp.", b.QueueStatus(l, 3))
	assert.Equal(t, "3 people are waiting for Lamp.", b.QueueStatus(l, 7))
	assert.Equal(t, "Nobody is waiting for Lamp yet, you would be first in line.", b.QueueStatus(&domain.Listing{Title: "Lamp"}, 7))
}

func TestBuilder_SellerSummary(t *testing.T) {
	b := newBuilder(t)
	l := &domain.Listing{ID: "L1", Title: "Lamp", Seller: 9, Queue: []int64{1, 2}}

	summary := b.SellerSummary(l, func(id int64) string {
		if id == 1 {
			return "@ann"
		}
		return ""
	})
	assert.Equal(t, "2 people are waiting for Lamp:\n1. @ann\n2. 2", summary)
	assert.Equal(t, "Nobody is waiting for Lamp.", b.SellerSummary(&domain.Listing{Title: "Lamp"}, nil))
}

func TestBuilder_PromotedAndFAQ(t *testing.T) {
	b := newBuilder(t)
	l := &domain.Listing{ID: "L1", Title: "Lamp", Price: 40, FAQ: []domain.FAQEntry{{Question: "Price?", Answer: "40"}}}

	msgs := b.Promoted(l)
	require.Len(t, msgs, 2)
	assert.Equal(t, "You're now first in line for Lamp!", msgs[0].Text)
	assert.Equal(t, notify.KindQuickReplies, msgs[1].Kind)
	assert.Equal(t, TokenAcceptSellerOffer, msgs[1].Replies[0].Payload)
	assert.Equal(t, TokenDeclineSellerOffer, msgs[1].Replies[1].Payload)

	assert.Equal(t, "Question: Price?\nAnswer: 40", b.FAQ(l))
	assert.Equal(t, "The seller hasn't added an FAQ yet.", b.FAQ(&domain.Listing{}))
}
