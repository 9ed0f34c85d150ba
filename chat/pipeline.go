package chat

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

// FlagReasonBanned is the reason code attached to entries held by the term
// filter. Senders see only the reason code, never the matched term.
const FlagReasonBanned = "banned"

// Outcome of submitting a message to the moderation pipeline.
type Outcome int

const (
	// Delivered means the message was clean: appended to history and broadcast.
	Delivered Outcome = iota
	// Held means the message matched a filter term and sits in the moderation
	// queue pending review.
	Held
	// Rejected means the sender is banned; nothing was stored anywhere.
	Rejected
)

// Pipeline classifies inbound messages and routes them to the history log,
// the moderation queue, or nowhere. It keeps no state between calls beyond
// reads of the ban and filter lists; the ban check always runs first, so a
// banned sender's text is never evaluated or queued.
type Pipeline struct {
	History    databases.HistoryDatabase
	Moderation databases.ModerationDatabase
	Hub        *Hub
}

// NewPipeline wires a pipeline over the given stores and broadcaster
func NewPipeline(history databases.HistoryDatabase, moderation databases.ModerationDatabase, hub *Hub) *Pipeline {
	return &Pipeline{History: history, Moderation: moderation, Hub: hub}
}

// Submit classifies and routes one message. A non-nil error means a store or
// fabric failure; the message is treated as dropped (failed closed) and the
// outcome is not meaningful.
func (p *Pipeline) Submit(ctx context.Context, roomID string, sender models.Identity, text string) (Outcome, error) {
	banned, err := p.Moderation.IsBanned(ctx, sender.Username)
	if err != nil {
		return Rejected, err
	}
	if banned {
		return Rejected, nil
	}

	entry := models.ChatEntry{
		Sender:    sender.Username,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}

	matched, err := p.matches(ctx, text)
	if err != nil {
		return Held, err
	}
	if matched {
		flagged := models.FlaggedEntry{ChatEntry: entry, Reason: FlagReasonBanned}
		if err := p.Moderation.Enqueue(ctx, roomID, flagged); err != nil {
			return Held, err
		}
		return Held, nil
	}

	if err := p.History.Append(ctx, roomID, entry); err != nil {
		return Delivered, err
	}
	if err := p.Hub.Publish(ctx, roomID, EventChat, entry); err != nil {
		return Delivered, err
	}
	return Delivered, nil
}

// matches reports whether any filter term appears in text as a whole word,
// case-insensitively. "badword" matches "a badword here" but not
// "badwording".
func (p *Pipeline) matches(ctx context.Context, text string) (bool, error) {
	terms, err := p.Moderation.FilterTerms(ctx)
	if err != nil {
		return false, err
	}
	if len(terms) == 0 {
		return false, nil
	}

	tokens := tokenize(text)
	for _, term := range terms {
		if _, ok := tokens[strings.ToLower(term)]; ok {
			return true, nil
		}
	}
	return false, nil
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}
