// Looks up a player by name and prints their profile, recent matches and
// Conquest god totals. Handy for spot-checking what the API returns for a
// known account before trusting a collection run.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/hirez"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <player-name>", os.Args[0])
	}
	name := os.Args[1]

	devID := os.Getenv("SMITE_DEV_ID")
	authKey := os.Getenv("SMITE_AUTH_KEY")
	if devID == "" || authKey == "" {
		log.Fatal("SMITE_DEV_ID and SMITE_AUTH_KEY must be set")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := hirez.NewClient(devID, authKey, 1, logger.Sugar())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	player, err := client.GetPlayer(ctx, name)
	if errors.Is(err, hirez.ErrNoResult) {
		log.Fatalf("no data for %q (unknown name or privacy-enabled account)", name)
	}
	if err != nil {
		log.Fatalf("getplayer failed: %v", err)
	}
	fmt.Printf("%s (id %d)  level %d  %d-%d W/L  %dh played  region %s\n",
		player.Name, player.ID, player.Level, player.Wins, player.Losses, player.HoursPlayed, player.Region)

	history, err := client.GetMatchHistory(ctx, name)
	if err != nil {
		log.Fatalf("getmatchhistory failed: %v", err)
	}
	fmt.Printf("\nrecent matches (%d):\n", len(history))
	for i, m := range history {
		if i == 10 {
			fmt.Printf("  ... %d more\n", len(history)-10)
			break
		}
		fmt.Printf("  %d  %-22s %-16s %2d/%2d/%2d  %s\n",
			m.Match, m.Queue, m.God, m.Kills, m.Deaths, m.Assists, m.WinStatus)
	}

	stats, err := client.GetQueueStats(ctx, name, hirez.QueueConquest)
	if err != nil {
		log.Fatalf("getqueuestats failed: %v", err)
	}
	fmt.Printf("\nconquest gods (%d):\n", len(stats))
	for i, s := range stats {
		if i == 10 {
			fmt.Printf("  ... %d more\n", len(stats)-10)
			break
		}
		fmt.Printf("  %-16s %4d matches  %4d-%-4d\n", s.God, s.Matches, s.Wins, s.Losses)
	}
}
