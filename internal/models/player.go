package models

// Player is the getplayer profile row. Privacy-enabled accounts come back
// as an empty payload instead.
type Player struct {
	ID                int    `json:"Id"`
	Name              string `json:"Name"`
	Level             int    `json:"Level"`
	HoursPlayed       int    `json:"HoursPlayed"`
	Wins              int    `json:"Wins"`
	Losses            int    `json:"Losses"`
	Leaves            int    `json:"Leaves"`
	MasteryLevel      int    `json:"MasteryLevel"`
	Region            string `json:"Region"`
	TeamName          string `json:"Team_Name"`
	TotalWorshippers  int    `json:"Total_Worshippers"`
	CreatedDatetime   string `json:"Created_Datetime"`
	LastLoginDatetime string `json:"Last_Login_Datetime"`
	RetMsg            string `json:"ret_msg"`
}

// MatchHistoryEntry is one row of getmatchhistory, the player's most
// recent 50 matches.
type MatchHistoryEntry struct {
	Match       int64  `json:"Match"`
	MatchTime   string `json:"Match_Time"`
	QueueID     int    `json:"Match_Queue_Id"`
	Queue       string `json:"Queue"`
	God         string `json:"God"`
	GodID       int    `json:"GodId"`
	Kills       int    `json:"Kills"`
	Deaths      int    `json:"Deaths"`
	Assists     int    `json:"Assists"`
	Gold        int    `json:"Gold"`
	Minutes     int    `json:"Minutes"`
	WinStatus   string `json:"Win_Status"`
	Surrendered int    `json:"Surrendered"`
	RetMsg      string `json:"ret_msg"`
}

// QueueStat is one row of getqueuestats, per-god totals for a player in a
// single queue.
type QueueStat struct {
	God        string `json:"God"`
	GodID      int    `json:"GodId"`
	Matches    int    `json:"Matches"`
	Wins       int    `json:"Wins"`
	Losses     int    `json:"Losses"`
	Kills      int    `json:"Kills"`
	Deaths     int    `json:"Deaths"`
	Assists    int    `json:"Assists"`
	Gold       int    `json:"Gold"`
	Minutes    int    `json:"Minutes"`
	LastPlayed string `json:"LastPlayed"`
	RetMsg     string `json:"ret_msg"`
}
