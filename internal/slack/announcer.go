// Package slack mirrors finalized announcement posts into a Slack
// channel. Optional: only runs when a bot token and channel are
// configured. Failures are logged and never reach the dialog that
// produced the post.
package slack

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"github.com/otakuflix/anipost/internal/announce"
)

// Announcer consumes the announce bus and posts to a channel.
type Announcer struct {
	api     *slack.Client
	channel string
	bus     *announce.Bus
	log     *logrus.Entry
}

// NewAnnouncer creates a Slack announcer.
func NewAnnouncer(botToken, channel string, bus *announce.Bus) *Announcer {
	return &Announcer{
		api:     slack.New(botToken),
		channel: channel,
		bus:     bus,
		log:     logrus.WithField("component", "slack"),
	}
}

// Run subscribes to announcements and mirrors them until ctx is
// canceled.
func (a *Announcer) Run(ctx context.Context) error {
	ch := a.bus.Subscribe()
	defer a.bus.Unsubscribe(ch)

	a.log.Info("Slack announcer mirroring posts")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ann, ok := <-ch:
			if !ok {
				return nil
			}
			a.post(ann)
		}
	}
}

// post builds a Block Kit message for one announcement.
func (a *Announcer) post(ann *announce.Announcement) {
	header := slack.NewTextBlockObject(slack.MarkdownType,
		fmt.Sprintf(":tv: *%s* • Season %02d Episode %02d added", ann.Title, ann.Season, ann.Episode),
		false, false)
	headerSection := slack.NewSectionBlock(header, nil, nil)

	blocks := []slack.Block{headerSection}
	if ann.ImageURL != "" {
		blocks = append(blocks, slack.NewImageBlock(ann.ImageURL, ann.Title, "", nil))
	}

	var links []slack.MixedElement
	if ann.WatchURL != "" {
		links = append(links, slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("<%s|Watch now>", ann.WatchURL), false, false))
	}
	if ann.DownloadURL != "" {
		links = append(links, slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("<%s|Download>", ann.DownloadURL), false, false))
	}
	if len(links) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", links...))
	}

	_, _, err := a.api.PostMessage(a.channel, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		a.log.WithError(err).WithField("announcement", ann.ID).Warn("failed to mirror post")
	}
}
