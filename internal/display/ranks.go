package display

// DefaultRoleColor is used for roles missing from the rank table.
const DefaultRoleColor = "#919191"

// Rank is a staff rank as configured in the Roblox group.
type Rank struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Ranks lists the group ranks shown in the playtime tracker, lowest first.
var Ranks = []Rank{
	{ID: 5, Name: "Experienced Participant", Color: "#6cd94e"},
	{ID: 8, Name: "Trusted Participant", Color: "#4ed988ff"},
	{ID: 9, Name: "Gamemaster", Color: "#4ec4d9ff"},
	{ID: 10, Name: "Trial Moderator", Color: "#d9b44eff"},
	{ID: 20, Name: "Moderator", Color: "#e0982cff"},
	{ID: 30, Name: "Senior Moderator", Color: "#d94e4eff"},
	{ID: 31, Name: "Retired Staff", Color: "#fd7979ff"},
	{ID: 32, Name: "Respected Peer", Color: "#ffe89eff"},
	{ID: 40, Name: "Administrator", Color: "#ff3f3fff"},
	{ID: 50, Name: "Head Administrator", Color: "#b323cfff"},
	{ID: 103, Name: "Developer", Color: "#e658c2ff"},
	{ID: 104, Name: "Executive", Color: "#882383ff"},
	{ID: 105, Name: "Head Developer", Color: "#232a88ff"},
	{ID: 255, Name: "Founder", Color: "#2b80ffff"},
}

// RoleColor returns the colour for a role name.
func RoleColor(name string) string {
	for _, r := range Ranks {
		if r.Name == name {
			return r.Color
		}
	}
	return DefaultRoleColor
}

// RankByID looks up a rank by its group rank id.
func RankByID(id int) (Rank, bool) {
	for _, r := range Ranks {
		if r.ID == id {
			return r, true
		}
	}
	return Rank{}, false
}
