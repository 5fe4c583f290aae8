// AniPost
//
// A Telegram bot that builds formatted "new episode" announcement
// posts for anime titles from several metadata APIs.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "anipost",
	Short: "AniPost - anime episode announcement bot",
	Long: `AniPost builds formatted "new episode" announcement posts for anime
titles by merging metadata from Kitsu, AniList, and ani.zip.

  anipost serve                               Start the bot and HTTP server
  anipost post --name "Naruto" --episode 7    Render a post on the command line
  anipost suggest "narutoo"                   Rank catalog suggestions for a name`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
