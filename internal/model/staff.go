package model

// StaffMember is the authenticated staff identity returned by /api/auth.
type StaffMember struct {
	RankID    int    `json:"rankid"`
	Rank      string `json:"rank"`
	Username  string `json:"username"`
	RobloxID  int64  `json:"robloxid"`
	DiscordID string `json:"discordid"`
}
