package state

import (
	"time"

	"github.com/wordbound/wordbound-server/internal"
)

// ApplyMatchOutcome folds one completed match into a player's running stats.
// Pure: the input is not mutated. Losing resets the win streak; bests only
// ever grow.
func ApplyMatchOutcome(stats internal.PlayerStats, isWinner bool, scoreGained, wordsGained int, now time.Time) internal.PlayerStats {
	stats.TotalMatches++
	if isWinner {
		stats.TotalWins++
		stats.WinStreak++
	} else {
		stats.WinStreak = 0
	}
	stats.TotalScore += scoreGained
	stats.TotalWords += wordsGained
	if scoreGained > stats.BestScore {
		stats.BestScore = scoreGained
	}
	if stats.WinStreak > stats.BestWinStreak {
		stats.BestWinStreak = stats.WinStreak
	}
	stats.UpdatedAt = now
	return stats
}
