package sim

import (
	"fmt"
	"image/color"
	"strings"
)

// Side is which end of the pitch a player defends.
type Side uint8

const (
	Home Side = iota // human side, attacks the north goal
	Away             // computer side, attacks the south goal
)

// ComputerSide is the side with no human player. Only it supplies attackers.
const ComputerSide = Away

// String returns the side name
func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Home {
		return Away
	}
	return Home
}

// Team is a house. It only selects cosmetics, never behaviour.
type Team uint8

const (
	Gryffindor Team = iota
	Slytherin
	Ravenclaw
	Hufflepuff
)

// TeamInfo is one catalog entry.
type TeamInfo struct {
	ID    Team       `json:"id"`
	Name  string     `json:"name"`
	Hex   string     `json:"color"`
	Color color.RGBA `json:"-"`
}

// Catalog is a read-only team registry, built once and shared.
type Catalog struct {
	teams []TeamInfo
}

// DefaultCatalog returns the four houses with their radar colours.
func DefaultCatalog() *Catalog {
	return &Catalog{teams: []TeamInfo{
		{ID: Gryffindor, Name: "Gryffindor", Hex: "#ff0000", Color: color.RGBA{255, 0, 0, 255}},
		{ID: Slytherin, Name: "Slytherin", Hex: "#00ff00", Color: color.RGBA{0, 255, 0, 255}},
		{ID: Ravenclaw, Name: "Ravenclaw", Hex: "#0000ff", Color: color.RGBA{0, 0, 255, 255}},
		{ID: Hufflepuff, Name: "Hufflepuff", Hex: "#ffff00", Color: color.RGBA{255, 255, 0, 255}},
	}}
}

// Lookup returns the entry for t.
func (c *Catalog) Lookup(t Team) (TeamInfo, bool) {
	if int(t) >= len(c.teams) {
		return TeamInfo{}, false
	}
	return c.teams[t], true
}

// Name returns the display name of t, or "unknown".
func (c *Catalog) Name(t Team) string {
	if info, ok := c.Lookup(t); ok {
		return info.Name
	}
	return "unknown"
}

// Parse finds a team by case-insensitive name.
func (c *Catalog) Parse(name string) (Team, error) {
	for _, info := range c.teams {
		if strings.EqualFold(info.Name, strings.TrimSpace(name)) {
			return info.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown house %q", name)
}

// All returns a copy of every entry.
func (c *Catalog) All() []TeamInfo {
	out := make([]TeamInfo, len(c.teams))
	copy(out, c.teams)
	return out
}
