// Prints summary statistics for a dataset file: row counts, collection
// window, the most played gods and the archived snapshots. Quick sanity
// check after a collection run, before spending a training pass on it.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

func main() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "smite.db"
	}
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()

	ctx := context.Background()

	var gods, items, matches, participants int
	row := db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM gods),
		(SELECT COUNT(*) FROM items),
		(SELECT COUNT(*) FROM matches),
		(SELECT COUNT(*) FROM participants)`)
	if err := row.Scan(&gods, &items, &matches, &participants); err != nil {
		log.Fatalf("count query failed: %v", err)
	}
	fmt.Printf("%s\n", path)
	fmt.Printf("  gods %d, items %d, matches %d, participants %d\n", gods, items, matches, participants)

	var first, last sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MIN(fetched_at), MAX(fetched_at) FROM matches`).Scan(&first, &last); err != nil {
		log.Fatalf("window query failed: %v", err)
	}
	if first.Valid {
		fmt.Printf("  collected %s to %s\n",
			time.Unix(first.Int64, 0).UTC().Format("2006-01-02 15:04"),
			time.Unix(last.Int64, 0).UTC().Format("2006-01-02 15:04"))
	}

	fmt.Println("\nmost played gods:")
	rows, err := db.QueryContext(ctx, `
		SELECT g.name, COUNT(DISTINCT p.match_id) AS matches, AVG(p.won) AS win_rate
		FROM participants p
		JOIN gods g ON g.id = p.god_id
		GROUP BY p.god_id
		ORDER BY matches DESC
		LIMIT 15`)
	if err != nil {
		log.Fatalf("god query failed: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var count int
		var winRate float64
		if err := rows.Scan(&name, &count, &winRate); err != nil {
			log.Fatalf("scan failed: %v", err)
		}
		fmt.Printf("  %-20s %5d matches  %5.1f%% win\n", name, count, 100*winRate)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("god query failed: %v", err)
	}

	fmt.Println("\nsnapshots:")
	snaps, err := db.QueryContext(ctx, `SELECT run_id, created_at, LENGTH(body) FROM snapshots ORDER BY created_at DESC LIMIT 5`)
	if err != nil {
		log.Fatalf("snapshot query failed: %v", err)
	}
	defer snaps.Close()
	any := false
	for snaps.Next() {
		var runID string
		var createdAt int64
		var size int
		if err := snaps.Scan(&runID, &createdAt, &size); err != nil {
			log.Fatalf("scan failed: %v", err)
		}
		fmt.Printf("  %s  %s  %d bytes\n", runID, time.Unix(createdAt, 0).UTC().Format("2006-01-02 15:04"), size)
		any = true
	}
	if err := snaps.Err(); err != nil {
		log.Fatalf("snapshot query failed: %v", err)
	}
	if !any {
		fmt.Println("  none; run the trainer")
	}
}
