// Seeds a dataset file with synthetic Conquest matches so the trainer and
// dashboard can be exercised without API credentials. Each god favors a
// few items that genuinely raise its win chance, so the fitted ratings
// have visible structure instead of noise.
package main

import (
	"context"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/hirez"
	"github.com/smitebuilds/recommender/internal/models"
	"github.com/smitebuilds/recommender/internal/store"
)

type seedGod struct {
	id       int
	name     string
	pantheon string
	roles    string
	good     []int // items that raise this god's win chance
	bad      []int // items that lower it
}

var seedGods = []seedGod{
	{1672, "Ao Kuang", "Chinese", "Assassin", []int{9599, 10676}, []int{9623}},
	{1956, "Izanami", "Japanese", "Hunter", []int{10676, 15639}, []int{9616}},
	{2034, "Serqet", "Egyptian", "Assassin", []int{9599, 9619}, []int{9623}},
	{1699, "Scylla", "Greek", "Mage", []int{9616, 9617}, []int{15639}},
	{1763, "Geb", "Egyptian", "Guardian", []int{9623, 9624}, []int{9599}},
	{1737, "Sol", "Norse", "Mage", []int{9617, 9616}, []int{9619}},
	{1943, "Raijin", "Japanese", "Mage", []int{9616, 9624}, []int{9599}},
	{1678, "Mercury", "Roman", "Assassin", []int{15639, 9599}, []int{9617}},
	{1748, "Ra", "Egyptian", "Mage", []int{9617, 9623}, []int{10676}},
	{1924, "Khepri", "Egyptian", "Guardian", []int{9624, 9623}, []int{15639}},
	{1966, "Skadi", "Norse", "Hunter", []int{10676, 9599}, []int{9624}},
	{1747, "Ares", "Greek", "Guardian", []int{9623, 9619}, []int{9616}},
}

var seedItems = []models.Item{
	{ItemID: 9599, DeviceName: "Deathbringer", ItemTier: 3, Type: "Item"},
	{ItemID: 10676, DeviceName: "Qin's Sais", ItemTier: 3, Type: "Item"},
	{ItemID: 15639, DeviceName: "Bloodforge", ItemTier: 3, Type: "Item"},
	{ItemID: 9616, DeviceName: "Rod of Tahuti", ItemTier: 3, Type: "Item"},
	{ItemID: 9617, DeviceName: "Spear of Desolation", ItemTier: 3, Type: "Item"},
	{ItemID: 9619, DeviceName: "Brawler's Beat Stick", ItemTier: 3, Type: "Item"},
	{ItemID: 9623, DeviceName: "Sovereignty", ItemTier: 3, Type: "Item"},
	{ItemID: 9624, DeviceName: "Heartward Amulet", ItemTier: 3, Type: "Item"},
	{ItemID: 7545, DeviceName: "Warrior Tabi", ItemTier: 2, Type: "Item"},
	{ItemID: 7528, DeviceName: "Shoes of the Magi", ItemTier: 2, Type: "Item"},
	{ItemID: 19692, DeviceName: "Charon's Coin", ItemTier: 2, Type: "Item", StartingItem: true},
	{ItemID: 23048, DeviceName: "Death's Toll", ItemTier: 1, Type: "Item", StartingItem: true},
}

func main() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "smite.db"
	}
	count := 2000
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil {
			log.Fatalf("usage: %s [match-count]", os.Args[0])
		}
		count = n
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := store.Open(path, logger.Sugar())
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()

	ctx := context.Background()

	gods := make([]models.God, 0, len(seedGods))
	for _, g := range seedGods {
		gods = append(gods, models.God{ID: g.id, Name: g.name, Pantheon: g.pantheon, Roles: g.roles})
	}
	if err := db.ReplaceGods(ctx, gods); err != nil {
		log.Fatalf("seed gods: %v", err)
	}
	if err := db.ReplaceItems(ctx, seedItems); err != nil {
		log.Fatalf("seed items: %v", err)
	}

	rng := rand.New(rand.NewSource(20260101))
	baseID := int64(900000000)

	var records []models.ParticipantRecord
	for m := 0; m < count; m++ {
		records = append(records, simulate(rng, baseID+int64(m))...)
		if len(records) >= 2000 {
			if err := db.InsertParticipants(ctx, records); err != nil {
				log.Fatalf("insert: %v", err)
			}
			records = records[:0]
		}
	}
	if err := db.InsertParticipants(ctx, records); err != nil {
		log.Fatalf("insert: %v", err)
	}

	matches, _ := db.CountMatches(ctx)
	participants, _ := db.CountParticipants(ctx)
	log.Printf("seeded %s: %d matches, %d participants", path, matches, participants)
}

// simulate builds one ten-player match. Win chance follows the difference
// in item strength between the two sides through a logistic curve.
func simulate(rng *rand.Rand, matchID int64) []models.ParticipantRecord {
	order := rng.Perm(len(seedGods))[:10]

	type pick struct {
		god       seedGod
		items     []int
		taskForce int
	}

	picks := make([]pick, 0, 10)
	var strength [3]float64
	for slot, gi := range order {
		g := seedGods[gi]
		tf := 1
		if slot >= 5 {
			tf = 2
		}

		items, s := buildItems(rng, g)
		strength[tf] += s
		picks = append(picks, pick{god: g, items: items, taskForce: tf})
	}

	p := 1 / (1 + math.Exp(-(strength[1]-strength[2])/2))
	winner := 2
	if rng.Float64() < p {
		winner = 1
	}

	records := make([]models.ParticipantRecord, 0, 10)
	for _, pk := range picks {
		records = append(records, models.ParticipantRecord{
			MatchID:   matchID,
			QueueID:   hirez.QueueConquest,
			GodID:     pk.god.id,
			TaskForce: pk.taskForce,
			Won:       pk.taskForce == winner,
			ItemIDs:   pk.items,
		})
	}
	return records
}

// buildItems picks a starter plus five finished items and reports how much
// the build strengthens the god's side.
func buildItems(rng *rand.Rand, g seedGod) ([]int, float64) {
	items := []int{seedItems[10+rng.Intn(2)].ItemID}
	strength := 0.0

	chosen := map[int]bool{}
	for len(items) < 6 {
		var id int
		roll := rng.Float64()
		switch {
		case roll < 0.55:
			id = g.good[rng.Intn(len(g.good))]
		case roll < 0.70:
			id = g.bad[rng.Intn(len(g.bad))]
		default:
			id = seedItems[rng.Intn(10)].ItemID
		}
		if chosen[id] {
			continue
		}
		chosen[id] = true
		items = append(items, id)

		for _, good := range g.good {
			if id == good {
				strength += 0.6
			}
		}
		for _, bad := range g.bad {
			if id == bad {
				strength -= 0.4
			}
		}
	}
	return items, strength
}
