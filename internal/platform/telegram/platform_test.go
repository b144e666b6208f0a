package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/queue-bot/internal/errors"
	"github.com/Proton-105/queue-bot/internal/notify"
)

type sent struct {
	to     string
	what   interface{}
	markup *telebot.ReplyMarkup
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	s := sent{to: to.Recipient(), what: what}
	for _, opt := range opts {
		if m, ok := opt.(*telebot.ReplyMarkup); ok {
			s.markup = m
		}
	}
	f.sent = append(f.sent, s)
	return &telebot.Message{}, nil
}

func TestPlatform_SendText(t *testing.T) {
	bot := &fakeSender{}
	p := New(bot, nil, nil, nil)

	require.NoError(t, p.SendText(context.Background(), 42, "hello"))

	require.Len(t, bot.sent, 1)
	assert.Equal(t, "42", bot.sent[0].to)
	assert.Equal(t, "hello", bot.sent[0].what)
	assert.Nil(t, bot.sent[0].markup)
}

func TestPlatform_SendQuickReplies(t *testing.T) {
	bot := &fakeSender{}
	p := New(bot, NewLimiter(100, 5), nil, nil)

	err := p.SendQuickReplies(context.Background(), 7, "Buying or selling?", []notify.QuickReply{
		{Title: "Buying", Payload: "buyer"},
		{Title: "Selling", Payload: "seller"},
	})
	require.NoError(t, err)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, "Buying or selling?", bot.sent[0].what)
	require.NotNil(t, bot.sent[0].markup)
	require.Len(t, bot.sent[0].markup.InlineKeyboard, 2)
	assert.Equal(t, "qr:buyer", bot.sent[0].markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "Selling", bot.sent[0].markup.InlineKeyboard[1][0].Text)
}

func TestPlatform_SendTemplate(t *testing.T) {
	bot := &fakeSender{}
	p := New(bot, nil, nil, nil)

	err := p.SendTemplate(context.Background(), 7, notify.Template{
		Title:    "Is this the right picture?",
		Subtitle: "Tap a button to answer.",
		Buttons:  []notify.Button{{Title: "Yes!", Payload: "confirm-photo"}, {Title: "No!", Payload: "reject-photo"}},
	})
	require.NoError(t, err)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, "Is this the right picture?\nTap a button to answer.", bot.sent[0].what)
	require.Len(t, bot.sent[0].markup.InlineKeyboard, 1)
	assert.Equal(t, "pb:reject-photo", bot.sent[0].markup.InlineKeyboard[0][1].Data)
}

func TestPlatform_OversizedPayload(t *testing.T) {
	bot := &fakeSender{}
	p := New(bot, nil, nil, nil)

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'x'
	}
	err := p.SendQuickReplies(context.Background(), 7, "prompt", []notify.QuickReply{{Title: "x", Payload: string(long)}})

	assert.Error(t, err)
	assert.Empty(t, bot.sent)
}

func TestPlatform_RecipientErrorsKeepBreakerClosed(t *testing.T) {
	bot := &fakeSender{err: telebot.ErrBlockedByUser}
	breaker := apperrors.NewCircuitBreaker(apperrors.WithMinRequests(2))
	p := New(bot, nil, breaker, nil)

	for range 5 {
		err := p.SendText(context.Background(), 1, "hi")
		assert.ErrorIs(t, err, telebot.ErrBlockedByUser)
	}
	assert.Equal(t, apperrors.StateClosed, breaker.State())
}

func TestPlatform_TransportErrorsOpenBreaker(t *testing.T) {
	bot := &fakeSender{err: errors.New("connection reset")}
	breaker := apperrors.NewCircuitBreaker(apperrors.WithMinRequests(2))
	p := New(bot, nil, breaker, nil)

	for range 2 {
		err := p.SendText(context.Background(), 1, "hi")
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.CodeExternal, appErr.Code)
	}
	require.Equal(t, apperrors.StateOpen, breaker.State())

	bot.err = nil
	err := p.SendText(context.Background(), 1, "hi")
	assert.ErrorIs(t, err, apperrors.ErrCircuitOpen)
	assert.Empty(t, bot.sent)
}

func TestPlatform_LimiterHonoursContext(t *testing.T) {
	bot := &fakeSender{}
	p := New(bot, NewLimiter(0.001, 1), nil, nil)

	require.NoError(t, p.SendText(context.Background(), 1, "first"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.SendText(ctx, 1, "second"))
	assert.Len(t, bot.sent, 1)
}
