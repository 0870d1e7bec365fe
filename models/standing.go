package models

// Standing is one row of a ranking table. For Swiss and round robin it is
// computed from completed matches; for elimination formats Points carries the
// furthest round reached instead of match points.
type Standing struct {
	ParticipantID int    `json:"participant_id"`
	UserID        string `json:"user_id"`
	Rank          int    `json:"rank"`
	Points        int    `json:"points"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	GamesFor      int    `json:"games_for"`
	GamesAgainst  int    `json:"games_against"`
}

// GameDifference is the Swiss/round robin tiebreaker.
func (s Standing) GameDifference() int {
	return s.GamesFor - s.GamesAgainst
}

// PlayerStats aggregates a user's record across all completed tournaments of
// a guild, backing the stats command.
type PlayerStats struct {
	UserID            string `json:"user_id"`
	GuildID           string `json:"guild_id"`
	TournamentsPlayed int    `json:"tournaments_played"`
	TournamentsWon    int    `json:"tournaments_won"`
	MatchWins         int    `json:"match_wins"`
	MatchLosses       int    `json:"match_losses"`
	GamesWon          int    `json:"games_won"`
	GamesLost         int    `json:"games_lost"`
}
