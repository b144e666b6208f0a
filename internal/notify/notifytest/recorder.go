// Package notifytest provides an in-memory notify.Platform for tests.
package notifytest

import (
	"context"
	"sync"

	"github.com/Proton-105/queue-bot/internal/notify"
)

// Sent is a delivered message with its recipient.
type Sent struct {
	Recipient int64
	Message   notify.Message
}

// Recorder records every message and can be told to fail for chosen recipients.
type Recorder struct {
	mu      sync.Mutex
	sent    []Sent
	failFor map[int64]error
}

func NewRecorder() *Recorder {
	return &Recorder{failFor: map[int64]error{}}
}

// FailFor makes every delivery to recipient return err.
func (r *Recorder) FailFor(recipient int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFor[recipient] = err
}

func (r *Recorder) SendText(_ context.Context, recipient int64, text string) error {
	return r.record(recipient, notify.Text(text))
}

func (r *Recorder) SendQuickReplies(_ context.Context, recipient int64, prompt string, replies []notify.QuickReply) error {
	return r.record(recipient, notify.QuickReplies(prompt, replies...))
}

func (r *Recorder) SendTemplate(_ context.Context, recipient int64, tpl notify.Template) error {
	return r.record(recipient, notify.TemplateMessage(tpl))
}

func (r *Recorder) record(recipient int64, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[recipient]; err != nil {
		return err
	}
	r.sent = append(r.sent, Sent{Recipient: recipient, Message: msg})
	return nil
}

// All returns every recorded message in delivery order.
func (r *Recorder) All() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// To returns the messages delivered to recipient in order.
func (r *Recorder) To(recipient int64) []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Message
	for _, s := range r.sent {
		if s.Recipient == recipient {
			out = append(out, s.Message)
		}
	}
	return out
}

// Texts returns the text of every message delivered to recipient.
func (r *Recorder) Texts(recipient int64) []string {
	var out []string
	for _, m := range r.To(recipient) {
		if m.Kind == notify.KindTemplate {
			out = append(out, m.Template.Title)
			continue
		}
		out = append(out, m.Text)
	}
	return out
}

// Payloads returns the quick reply and button payloads of the last message with
// options delivered to recipient.
func (r *Recorder) Payloads(recipient int64) []string {
	msgs := r.To(recipient)
	for i := len(msgs) - 1; i >= 0; i-- {
		var out []string
		for _, qr := range msgs[i].Replies {
			out = append(out, qr.Payload)
		}
		for _, b := range msgs[i].Template.Buttons {
			out = append(out, b.Payload)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Reset forgets every recorded message.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
