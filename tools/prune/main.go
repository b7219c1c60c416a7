// Removes matches collected more than a given number of days ago, with
// their participant rows. Run it after a patch lands so stale builds stop
// feeding the next training pass.
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/store"
)

func main() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "smite.db"
	}
	days := 30
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			log.Fatalf("usage: %s [days]", os.Args[0])
		}
		days = n
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := store.Open(path, logger.Sugar())
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()

	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -days)
	removed, err := db.PruneBefore(ctx, cutoff)
	if err != nil {
		log.Fatalf("prune: %v", err)
	}

	matches, _ := db.CountMatches(ctx)
	log.Printf("removed %d matches older than %d days, %d remain", removed, days, matches)
}
