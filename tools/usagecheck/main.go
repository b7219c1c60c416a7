// Prints the Hi-Rez developer account's daily quota consumption. Run it
// before kicking off a large collection to see how much headroom is left.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/hirez"
)

func main() {
	devID := os.Getenv("SMITE_DEV_ID")
	authKey := os.Getenv("SMITE_AUTH_KEY")
	if devID == "" || authKey == "" {
		log.Fatal("SMITE_DEV_ID and SMITE_AUTH_KEY must be set")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := hirez.NewClient(devID, authKey, 1, logger.Sugar())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx)
	if err != nil {
		log.Fatalf("ping failed: %v", err)
	}
	fmt.Printf("ping: %s\n", pong)

	ok, err := client.TestSession(ctx)
	if err != nil {
		log.Fatalf("testsession failed: %v", err)
	}
	fmt.Printf("session valid: %v\n", ok)

	usage, err := client.GetDataUsed(ctx)
	if err != nil {
		log.Fatalf("getdataused failed: %v", err)
	}
	fmt.Printf("requests today:  %d / %d\n", usage.TotalRequestsToday, usage.RequestLimitDaily)
	fmt.Printf("sessions today:  %d / %d\n", usage.TotalSessionsToday, usage.SessionCap)
	fmt.Printf("active sessions: %d / %d\n", usage.ActiveSessions, usage.ConcurrentSessions)
}
