package model

// PlaytimeEntry is the aggregated in-game time of one staff member.
type PlaytimeEntry struct {
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Seconds  int64  `json:"sum(time)"`
}
