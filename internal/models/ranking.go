package models

import "time"

// RankedItem is one row of a leaderboard tier. Equal totals share a rank and
// the next distinct total resumes at its positional index (1,1,3).
type RankedItem struct {
	Name        string  `json:"name"`
	TotalPoints float64 `json:"total_points"`
	Rank        int     `json:"rank"`
}

// RankingReport is the hierarchical leaderboard for one competition level.
// Every tier lists the full roster within the requester's scope; entities
// with no completed projects appear at zero points.
type RankingReport struct {
	Level       CompetitionLevel `json:"level"`
	Regions     []RankedItem     `json:"regions"`
	Counties    []RankedItem     `json:"counties"`
	SubCounties []RankedItem     `json:"sub_counties"`
	Zones       []RankedItem     `json:"zones"`
	Schools     []RankedItem     `json:"schools"`
	GeneratedAt time.Time        `json:"generated_at"`
}
