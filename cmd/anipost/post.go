package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/otakuflix/anipost/internal/caption"
	"github.com/otakuflix/anipost/internal/catalog"
	"github.com/otakuflix/anipost/internal/config"
	"github.com/otakuflix/anipost/internal/metadata/anilist"
	"github.com/otakuflix/anipost/internal/metadata/anizip"
	"github.com/otakuflix/anipost/internal/metadata/kitsu"
	"github.com/otakuflix/anipost/internal/network"
	"github.com/otakuflix/anipost/internal/resolver"
)

var (
	postName    string
	postEpisode int
	postStyle   string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Render an announcement post on the command line",
	Long:  "Resolve metadata for an anime episode and print the caption and links without sending anything.",
	RunE:  runPost,
}

func init() {
	postCmd.Flags().StringVar(&postName, "name", "", "anime name (must match the catalog)")
	postCmd.Flags().IntVar(&postEpisode, "episode", 0, "episode number")
	postCmd.Flags().StringVar(&postStyle, "style", "watch", "post style: watch or download")
	postCmd.MarkFlagRequired("name")
	postCmd.MarkFlagRequired("episode")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	if postEpisode < 1 {
		return fmt.Errorf("episode must be a positive number")
	}
	style := caption.StyleWatch
	if postStyle == string(caption.StyleDownload) {
		style = caption.StyleDownload
	}

	res := newResolver(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	post, err := res.Resolve(ctx, postName, postEpisode)
	if err != nil {
		return err
	}

	text := caption.Format(caption.Data{
		Title:      post.Title,
		Season:     post.Season,
		Episode:    post.Episode,
		Rating:     post.Rating,
		Synopsis:   post.Synopsis,
		Airing:     post.Airing,
		Genres:     post.Genres,
		ChannelTag: cfg.ChannelTag,
	}, style)

	fmt.Println(text)
	fmt.Println()
	fmt.Printf("image:    %s\n", post.ImageURL)
	if post.WatchURL != "" {
		fmt.Printf("watch:    %s\n", post.WatchURL)
	}
	if post.DownloadURL != "" {
		fmt.Printf("download: %s\n", post.DownloadURL)
	}
	return nil
}

func newResolver(cfg *config.Config) *resolver.Resolver {
	cat := catalog.NewClient(cfg.CatalogOwner, cfg.CatalogRepo, cfg.CatalogPath, cfg.CatalogTTL)
	return resolver.New(
		resolver.Config{
			WatchBaseURL:     cfg.WatchBaseURL,
			DownloadBaseURL:  cfg.DownloadBaseURL,
			PlaceholderImage: cfg.PlaceholderImage,
		},
		cat,
		anilist.NewClient(),
		anizip.NewClient(),
		kitsu.NewClient(),
		network.ValidateImage,
	)
}
