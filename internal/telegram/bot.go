// Package telegram provides the Telegram bot front end for AniPost.
//
// Uses long polling -- no public URL or webhook needed. Updates are
// handled sequentially on a single loop so two messages from the same
// user are never processed concurrently.
package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/otakuflix/anipost/internal/announce"
	"github.com/otakuflix/anipost/internal/caption"
	"github.com/otakuflix/anipost/internal/resolver"
	"github.com/otakuflix/anipost/internal/session"
)

// PostResolver produces a merged post for a name and episode number.
type PostResolver interface {
	Resolve(ctx context.Context, name string, episode int) (*resolver.Post, error)
}

// Options holds the bot's presentation knobs.
type Options struct {
	WelcomeImage    string
	JoinURL         string
	ChannelTag      string
	SuggestionLimit int
}

// Bot is the AniPost Telegram bot.
type Bot struct {
	api      *tgbotapi.BotAPI
	store    *session.Store
	flow     *flow
	resolver PostResolver
	bus      *announce.Bus
	opts     Options
	log      *logrus.Entry
}

// NewBot creates a new Telegram bot.
func NewBot(token string, store *session.Store, cat resolver.CatalogSource, res PostResolver, bus *announce.Bus, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logrus.WithField("component", "telegram")
	log.Infof("Telegram bot authorized as @%s", api.Self.UserName)

	return &Bot{
		api:      api,
		store:    store,
		flow:     &flow{store: store, catalog: cat, limit: opts.SuggestionLimit},
		resolver: res,
		bus:      bus,
		opts:     opts,
		log:      log,
	}, nil
}

// Run starts the long-polling loop. Blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	b.log.Info("Telegram bot listening for messages...")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				// Sequential on purpose: updates for the same user
				// must not be processed concurrently.
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// handleMessage processes one incoming message.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.sendWelcome(chatID)
		case "w":
			b.store.Begin(userID, session.CommandWatch)
			b.sendText(chatID, promptName)
		case "d":
			b.store.Begin(userID, session.CommandDownload)
			b.sendText(chatID, promptName)
		case "cancel":
			b.store.Delete(userID)
			b.sendText(chatID, "Cancelled.")
		}
		return
	}

	if msg.Text == "" {
		return
	}

	res := b.flow.handleText(ctx, userID, msg.Text)
	if res.done {
		b.finalize(ctx, chatID, res.finished)
		return
	}
	if res.reply != "" {
		b.sendText(chatID, res.reply)
	}
}

// finalize runs the resolver and formatter for a completed dialog and
// delivers the post. Exactly one attempt: the session is deleted no
// matter how delivery goes.
func (b *Bot) finalize(ctx context.Context, chatID int64, sess session.Session) {
	defer b.store.Delete(sess.UserID)

	post, err := b.resolver.Resolve(ctx, sess.AnimeName, sess.EpisodeNumber)
	if err != nil {
		var notFound *resolver.NotFoundError
		if errors.As(err, &notFound) {
			b.sendText(chatID, "Anime '"+sess.AnimeName+"' not found in the database.")
			return
		}
		b.log.WithError(err).Error("resolution failed")
		b.sendText(chatID, "Something went wrong while building the post. Please try again.")
		return
	}

	style := caption.StyleWatch
	if sess.Command == session.CommandDownload {
		style = caption.StyleDownload
	}

	text := caption.Format(caption.Data{
		Title:      post.Title,
		Season:     post.Season,
		Episode:    post.Episode,
		Rating:     post.Rating,
		Synopsis:   post.Synopsis,
		Airing:     post.Airing,
		Genres:     post.Genres,
		ChannelTag: b.opts.ChannelTag,
	}, style)

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(post.ImageURL))
	photo.Caption = text
	photo.ParseMode = "MarkdownV2"
	photo.ReplyMarkup = postKeyboard(post, style)

	if _, err := b.api.Send(photo); err != nil {
		b.log.WithError(err).Error("failed to deliver post")
		b.sendText(chatID, "Failed to deliver the post. Please try again.")
		return
	}

	b.bus.Publish(&announce.Announcement{
		ID:          uuid.New().String()[:8],
		Title:       post.Title,
		Episode:     post.Episode,
		Season:      post.Season,
		Style:       string(style),
		Caption:     text,
		ImageURL:    post.ImageURL,
		WatchURL:    post.WatchURL,
		DownloadURL: post.DownloadURL,
		CreatedAt:   time.Now().UTC(),
	})
}

// postKeyboard builds the action buttons: watch always (when a deep
// link exists), download only for download-style posts.
func postKeyboard(post *resolver.Post, style caption.Style) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if post.WatchURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✦ ＷＡＴＣＨ  ＮＯＷ ✦", post.WatchURL),
		))
	}
	if style == caption.StyleDownload && post.DownloadURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✦ D O W N L O A D ✦", post.DownloadURL),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// sendWelcome sends the /start photo with usage help.
func (b *Bot) sendWelcome(chatID int64) {
	text := "*👋 Welcome to ANIFLIX Bot\\!*\n\n" +
		"🔥 I can help you *find & watch anime episodes* easily\\.\n" +
		"🎥 Use /w to get anime episodes\\.\n" +
		"📥 Use /d to find download links\\.\n\n" +
		"⚡ *How to use:*\n" +
		"1\\. Send /w or /d\\.\n" +
		"2\\. Enter anime name\\.\n" +
		"3\\. Enter episode number\\.\n\n" +
		"Enjoy watching\\! 🚀"

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(b.opts.WelcomeImage))
	photo.Caption = text
	photo.ParseMode = "MarkdownV2"
	photo.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Join ANIFLIX", b.opts.JoinURL),
		),
	)

	if _, err := b.api.Send(photo); err != nil {
		b.log.WithError(err).Warn("failed to send welcome")
		b.sendText(chatID, "Welcome! Use /w or /d to build an episode post.")
	}
}

// sendText sends a plain text message.
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).Warn("failed to send message")
	}
}
