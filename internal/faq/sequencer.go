// Package faq runs the seller's FAQ setup: a fixed list of questions answered one
// message at a time, each answer being a price.
package faq

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Proton-105/queue-bot/internal/domain"
	"github.com/Proton-105/queue-bot/internal/listing"
	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/Proton-105/queue-bot/pkg/metrics"
)

var (
	ErrNotSeller    = errors.New("only the seller can set up the FAQ")
	ErrNoQuestions  = errors.New("faq has no questions configured")
	errNotAnInteger = errors.New("answer is not a non-negative integer")
)

type Outcome int

const (
	// OutcomeRetry means the answer was rejected; nothing changed.
	OutcomeRetry Outcome = iota
	// OutcomeNext means the answer was stored and another question follows.
	OutcomeNext
	// OutcomeDone means the last question was answered.
	OutcomeDone
)

// Result is the outcome of one answer.
type Result struct {
	Outcome Outcome
	// Data is the updated FAQ setup context. Unchanged on OutcomeRetry.
	Data state.FAQSetupData
	// Question is the question to ask next (current one again on retry, empty when done).
	Question string
	Listing  *domain.Listing
}

// Sequencer drives FAQ setup for listings.
type Sequencer struct {
	listings  *listing.Store
	questions []string
}

func NewSequencer(listings *listing.Store, questions []string) *Sequencer {
	return &Sequencer{listings: listings, questions: questions}
}

// Total is the number of questions in a full setup.
func (s *Sequencer) Total() int {
	return len(s.questions)
}

// Start resets the listing's FAQ and returns the initial context and the first question.
func (s *Sequencer) Start(ctx context.Context, sellerID int64, listingID string) (state.FAQSetupData, string, error) {
	if len(s.questions) == 0 {
		return state.FAQSetupData{}, "", ErrNoQuestions
	}

	_, err := s.listings.Update(ctx, listingID, func(l *domain.Listing) error {
		if !l.IsSeller(sellerID) {
			return ErrNotSeller
		}
		l.FAQ = []domain.FAQEntry{}
		return nil
	})
	if err != nil {
		return state.FAQSetupData{}, "", err
	}

	return state.FAQSetupData{ListingID: listingID}, s.questions[0], nil
}

// Answer applies one inbound message to the setup described by data.
func (s *Sequencer) Answer(ctx context.Context, sellerID int64, data state.FAQSetupData, text string) (Result, error) {
	idx := data.QuestionsAnswered
	if idx < 0 || idx >= len(s.questions) {
		return Result{}, ErrNoQuestions
	}

	price, err := parsePrice(text)
	if err != nil {
		metrics.RecordFAQAnswer("invalid")
		return Result{Outcome: OutcomeRetry, Data: data, Question: s.questions[idx]}, nil
	}

	entry := domain.FAQEntry{Question: s.questions[idx], Answer: strconv.FormatInt(price, 10)}
	updated, err := s.listings.Update(ctx, data.ListingID, func(l *domain.Listing) error {
		if !l.IsSeller(sellerID) {
			return ErrNotSeller
		}
		l.Price = price
		l.FAQ = append(l.FAQ, entry)
		return nil
	})
	if err != nil {
		metrics.RecordFAQAnswer("error")
		return Result{}, err
	}
	metrics.RecordFAQAnswer("accepted")

	next := state.FAQSetupData{ListingID: data.ListingID, QuestionsAnswered: idx + 1}
	if next.QuestionsAnswered >= len(s.questions) {
		return Result{Outcome: OutcomeDone, Data: next, Listing: updated}, nil
	}

	return Result{
		Outcome:  OutcomeNext,
		Data:     next,
		Question: s.questions[next.QuestionsAnswered],
		Listing:  updated,
	}, nil
}

func parsePrice(text string) (int64, error) {
	price, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || price < 0 {
		return 0, errNotAnInteger
	}
	return price, nil
}

// Format renders the FAQ of a listing using the given entry template
// (placeholders {question} and {answer}).
func Format(entries []domain.FAQEntry, render func(question, answer string) string) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, render(e.Question, e.Answer))
	}
	return strings.Join(parts, "\n\n")
}
