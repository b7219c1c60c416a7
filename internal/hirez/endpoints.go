package hirez

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smitebuilds/recommender/internal/models"
)

// Match queue IDs accepted by getmatchidsbyqueue.
const (
	QueueConquest       = 426
	QueueArena          = 435
	QueueJoust          = 448
	QueueAssault        = 445
	QueueSiege          = 459
	QueueMOTD           = 434
	QueueRankedDuel     = 440
	QueueRankedJoust    = 450
	QueueRankedConquest = 451
)

// maxBatchIDs is the getmatchdetailsbatch limit imposed by the API.
const maxBatchIDs = 10

// DateFormat is the yyyyMMdd layout getmatchidsbyqueue expects.
const DateFormat = "20060102"

// Yesterday returns the most recent fully completed UTC day, the default
// collection window.
func Yesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format(DateFormat)
}

// Ping checks connectivity. It needs no session and spends no quota.
func (c *Client) Ping(ctx context.Context) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/ping%s", c.baseURL, responseFormat))
	if err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	return strings.Trim(strings.TrimSpace(string(body)), `"`), nil
}

// TestSession reports whether the cached session is still accepted.
func (c *Client) TestSession(ctx context.Context) (bool, error) {
	sessionID, err := c.ensureSession(ctx)
	if err != nil {
		return false, err
	}
	body, err := c.get(ctx, c.buildURL("testsession", sessionID, nil))
	if err != nil {
		return false, fmt.Errorf("testsession: %w", err)
	}
	return strings.Contains(string(body), "successful"), nil
}

// GetDataUsed returns the developer account's daily quota consumption.
// Calling it spends quota itself.
func (c *Client) GetDataUsed(ctx context.Context) (*models.DataUsage, error) {
	var rows []models.DataUsage
	if err := c.call(ctx, "getdataused", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("getdataused: %w", ErrNoResult)
	}
	return &rows[0], nil
}

// GetPatchInfo returns the live patch version.
func (c *Client) GetPatchInfo(ctx context.Context) (*models.PatchInfo, error) {
	var info models.PatchInfo
	if err := c.call(ctx, "getpatchinfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetGods returns the full god reference table.
func (c *Client) GetGods(ctx context.Context) ([]models.God, error) {
	var gods []models.God
	if err := c.call(ctx, "getgods", &gods, strconv.Itoa(c.lang)); err != nil {
		return nil, err
	}
	return gods, nil
}

// GetItems returns the full item reference table.
func (c *Client) GetItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := c.call(ctx, "getitems", &items, strconv.Itoa(c.lang)); err != nil {
		return nil, err
	}
	return items, nil
}

// GetMatchIDsByQueue lists match IDs for a queue on a date. Date is yyyyMMdd;
// hour is "0".."23" or "-1" for the whole day.
func (c *Client) GetMatchIDsByQueue(ctx context.Context, queue int, date, hour string) ([]models.MatchIDEntry, error) {
	var entries []models.MatchIDEntry
	if err := c.call(ctx, "getmatchidsbyqueue", &entries, strconv.Itoa(queue), date, hour); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetMatchDetails returns every participant row of one completed match.
func (c *Client) GetMatchDetails(ctx context.Context, matchID string) ([]models.MatchPlayer, error) {
	var players []models.MatchPlayer
	if err := c.call(ctx, "getmatchdetails", &players, matchID); err != nil {
		return nil, err
	}
	return players, nil
}

// GetMatchDetailsBatch returns participant rows for up to ten matches in a
// single request, which is what keeps bulk collection inside the daily quota.
func (c *Client) GetMatchDetailsBatch(ctx context.Context, matchIDs []string) ([]models.MatchPlayer, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}
	if len(matchIDs) > maxBatchIDs {
		return nil, fmt.Errorf("getmatchdetailsbatch: %d ids exceeds limit of %d", len(matchIDs), maxBatchIDs)
	}
	var players []models.MatchPlayer
	if err := c.call(ctx, "getmatchdetailsbatch", &players, strings.Join(matchIDs, ",")); err != nil {
		return nil, err
	}
	return players, nil
}

// GetPlayer returns league and non-league high level data for a player name.
func (c *Client) GetPlayer(ctx context.Context, name string) (*models.Player, error) {
	var rows []models.Player
	if err := c.call(ctx, "getplayer", &rows, name); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("getplayer: %w", ErrNoResult)
	}
	return &rows[0], nil
}

// GetMatchHistory returns the player's 50 most recent matches.
func (c *Client) GetMatchHistory(ctx context.Context, player string) ([]models.MatchHistoryEntry, error) {
	var entries []models.MatchHistoryEntry
	if err := c.call(ctx, "getmatchhistory", &entries, player); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetQueueStats returns per-god totals for a player in one queue.
func (c *Client) GetQueueStats(ctx context.Context, player string, queue int) ([]models.QueueStat, error) {
	var stats []models.QueueStat
	if err := c.call(ctx, "getqueuestats", &stats, player, strconv.Itoa(queue)); err != nil {
		return nil, err
	}
	return stats, nil
}
