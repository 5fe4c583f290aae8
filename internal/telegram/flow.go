package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otakuflix/anipost/internal/resolver"
	"github.com/otakuflix/anipost/internal/session"
	"github.com/otakuflix/anipost/internal/suggest"
)

// flow drives the dialog steps. It owns no transport: given the
// user's text it mutates the session store and says what to reply,
// so the whole state machine is testable without the Telegram API.
type flow struct {
	store   *session.Store
	catalog resolver.CatalogSource
	limit   int
}

// stepResult is the outcome of one dialog step.
type stepResult struct {
	// reply is the prompt to send back, empty for no reply.
	reply string
	// done reports the dialog reached complete; finished holds the
	// session to resolve and post.
	done     bool
	finished session.Session
}

const (
	promptName       = "Please send me the anime name:"
	promptEpisode    = "Please send me the episode number:"
	promptBadEpisode = "That doesn't look like an episode number. Please send a positive number (e.g. 7):"
	replyExpired     = "Your session expired. Send /w or /d to start again."
	replyNoMatches   = "I couldn't find anything close to that name. Please check the spelling and try again:"
	replyCatalogDown = "I couldn't load the anime catalog right now. Please try again in a moment."
)

// handleText advances the user's dialog with a plain text message.
func (f *flow) handleText(ctx context.Context, userID int64, text string) stepResult {
	text = strings.TrimSpace(text)

	sess, ok, expired := f.store.Get(userID)
	if expired {
		return stepResult{reply: replyExpired}
	}
	if !ok {
		// Free text outside a dialog is ignored.
		return stepResult{}
	}

	switch sess.State {
	case session.StateAwaitingName:
		return f.stepName(ctx, sess, text)
	case session.StateAwaitingEpisode:
		return f.stepEpisode(sess, text)
	default:
		return stepResult{}
	}
}

func (f *flow) stepName(ctx context.Context, sess session.Session, text string) stepResult {
	// A numeric reply picks one of the offered suggestions.
	if len(sess.Suggestions) > 0 {
		if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(sess.Suggestions) {
			return f.acceptName(sess.UserID, sess.Suggestions[n-1])
		}
	}

	cat, err := f.catalog.Fetch(ctx)
	if err != nil {
		return stepResult{reply: replyCatalogDown}
	}

	if entry, ok := cat.Lookup(text); ok {
		return f.acceptName(sess.UserID, entry.Name)
	}

	// No exact match: offer ranked suggestions without advancing.
	names := suggest.Suggest(text, cat.Names(), f.limit)
	if len(names) == 0 {
		return stepResult{reply: replyNoMatches}
	}
	if err := f.store.SetSuggestions(sess.UserID, names); err != nil {
		return stepResult{reply: replyExpired}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I couldn't find %q. Did you mean:\n", text)
	for i, name := range names {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, name)
	}
	sb.WriteString("Reply with a number or the exact name, or /cancel to stop.")
	return stepResult{reply: sb.String()}
}

func (f *flow) acceptName(userID int64, name string) stepResult {
	if err := f.store.SetName(userID, name); err != nil {
		return stepResult{reply: replyExpired}
	}
	return stepResult{reply: promptEpisode}
}

func (f *flow) stepEpisode(sess session.Session, text string) stepResult {
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		// Re-prompt, state unchanged.
		return stepResult{reply: promptBadEpisode}
	}

	finished, err := f.store.SetEpisode(sess.UserID, n)
	if err != nil {
		return stepResult{reply: replyExpired}
	}
	return stepResult{done: true, finished: finished}
}
