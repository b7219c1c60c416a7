package models

// Session is the payload returned by createsession.
type Session struct {
	RetMsg    string `json:"ret_msg"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// DataUsage reports the developer account's quota consumption.
type DataUsage struct {
	ActiveSessions     int    `json:"Active_Sessions"`
	ConcurrentSessions int    `json:"Concurrent_Sessions"`
	RequestLimitDaily  int    `json:"Request_Limit_Daily"`
	SessionCap         int    `json:"Session_Cap"`
	SessionTimeLimit   int    `json:"Session_Time_Limit"`
	TotalRequestsToday int    `json:"Total_Requests_Today"`
	TotalSessionsToday int    `json:"Total_Sessions_Today"`
	RetMsg             string `json:"ret_msg"`
}

// PatchInfo is the current live patch version.
type PatchInfo struct {
	RetMsg        string `json:"ret_msg"`
	VersionString string `json:"version_string"`
}

// God is one row of the getgods reference table.
type God struct {
	ID             int    `json:"id"`
	Name           string `json:"Name"`
	Pantheon       string `json:"Pantheon"`
	Roles          string `json:"Roles"`
	Title          string `json:"Title"`
	Type           string `json:"Type"`
	OnFreeRotation string `json:"OnFreeRotation"` // "true" or ""
	LatestGod      string `json:"latestGod"`      // "y" or "n"
	RetMsg         string `json:"ret_msg"`
}

// Item is one row of the getitems reference table.
type Item struct {
	ItemID          int    `json:"ItemId"`
	DeviceName      string `json:"DeviceName"`
	ItemTier        int    `json:"ItemTier"`
	ChildItemID     int    `json:"ChildItemId"`
	RootItemID      int    `json:"RootItemId"`
	StartingItem    bool   `json:"StartingItem"`
	Type            string `json:"Type"`            // "Item", "Active", "Consumable"
	ActiveFlag      string `json:"ActiveFlag"`
	Price           int    `json:"Price"`
	RestrictedRoles string `json:"RestrictedRoles"`
	RetMsg          string `json:"ret_msg"`
}

// MatchIDEntry is one row of getmatchidsbyqueue. Active_Flag "y" marks a
// match still in progress, which has no final builds yet.
type MatchIDEntry struct {
	Match      string `json:"Match"`
	ActiveFlag string `json:"Active_Flag"`
	RetMsg     string `json:"ret_msg"`
}

// MatchPlayer is one participant row of getmatchdetails. Ten rows make up a
// Conquest match, five per task force.
type MatchPlayer struct {
	Match            int64  `json:"Match"`
	QueueID          int    `json:"match_queue_id"`
	QueueName        string `json:"name"`
	EntryDatetime    string `json:"Entry_Datetime"`
	TaskForce        int    `json:"TaskForce"`
	WinStatus        string `json:"Win_Status"`        // "Winner" or "Loser"
	WinningTaskForce int    `json:"Winning_TaskForce"`
	GodID            int    `json:"GodId"`
	ReferenceName    string `json:"Reference_Name"`
	PlayerName       string `json:"playerName"`
	AccountLevel     int    `json:"Account_Level"`
	MasteryLevel     int    `json:"Mastery_Level"`

	ItemID1   int    `json:"ItemId1"`
	ItemID2   int    `json:"ItemId2"`
	ItemID3   int    `json:"ItemId3"`
	ItemID4   int    `json:"ItemId4"`
	ItemID5   int    `json:"ItemId5"`
	ItemID6   int    `json:"ItemId6"`
	ItemName1 string `json:"Item_Purch_1"`
	ItemName2 string `json:"Item_Purch_2"`
	ItemName3 string `json:"Item_Purch_3"`
	ItemName4 string `json:"Item_Purch_4"`
	ItemName5 string `json:"Item_Purch_5"`
	ItemName6 string `json:"Item_Purch_6"`
	ActiveID1 int    `json:"ActiveId1"`
	ActiveID2 int    `json:"ActiveId2"`

	Kills           int     `json:"Kills_Player"`
	Deaths          int     `json:"Deaths"`
	Assists         int     `json:"Assists"`
	GoldEarned      int     `json:"Gold_Earned"`
	GoldPerMinute   int     `json:"Gold_Per_Minute"`
	DamagePlayer    int     `json:"Damage_Player"`
	DamageTaken     int     `json:"Damage_Taken"`
	Healing         int     `json:"Healing"`
	StructureDamage int     `json:"Structure_Damage"`
	Minutes         int     `json:"Minutes"`
	MatchSeconds    float64 `json:"Time_In_Match_Seconds"`

	RetMsg string `json:"ret_msg"`
}

// Won reports whether this participant's side took the match.
func (p *MatchPlayer) Won() bool {
	return p.WinStatus == "Winner"
}

// ToRecord converts the row to its storage form.
func (p *MatchPlayer) ToRecord() ParticipantRecord {
	return ParticipantRecord{
		MatchID:   p.Match,
		QueueID:   p.QueueID,
		GodID:     p.GodID,
		TaskForce: p.TaskForce,
		Won:       p.Won(),
		ItemIDs:   p.ItemIDs(),
	}
}

// ItemIDs returns the final build as a slice, empty slots dropped.
func (p *MatchPlayer) ItemIDs() []int {
	all := [6]int{p.ItemID1, p.ItemID2, p.ItemID3, p.ItemID4, p.ItemID5, p.ItemID6}
	out := make([]int, 0, 6)
	for _, id := range all {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}
