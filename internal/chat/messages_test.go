package chat

import (
	"testing"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/heist"

	"github.com/stretchr/testify/assert"
)

func TestShortDuration(t *testing.T) {
	assert.Equal(t, "45s", shortDuration(45*time.Second))
	assert.Equal(t, "1m30s", shortDuration(90*time.Second))
	assert.Equal(t, "3m", shortDuration(3*time.Minute))
	assert.Equal(t, "0s", shortDuration(300*time.Millisecond))
}

func TestDifficultyStars(t *testing.T) {
	assert.Equal(t, "★☆☆☆☆", difficultyStars(1))
	assert.Equal(t, "★★★☆☆", difficultyStars(3))
	assert.Equal(t, "★★★★★", difficultyStars(5))
	assert.Equal(t, "★☆☆☆☆", difficultyStars(0), "out-of-range clamps")
	assert.Equal(t, "★★★★★", difficultyStars(9))
}

func TestVotingTextListsEveryCrime(t *testing.T) {
	crimes := []heist.Crime{
		{ID: 1, Name: "servo snack run", Difficulty: 1, PayoutMin: 10, PayoutMax: 30},
		{ID: 2, Name: "pokies skim", Difficulty: 3, PayoutMin: 60, PayoutMax: 150},
	}

	text := votingText(crimes, 90*time.Second)

	assert.Contains(t, text, "1m30s")
	assert.Contains(t, text, "servo snack run")
	assert.Contains(t, text, "pokies skim")
	assert.Contains(t, text, "pays 60-150")
	assert.Contains(t, text, "!vote")
}

func TestResultText(t *testing.T) {
	crime := heist.Crime{Name: "pokies skim"}

	win := resultText(crime, heist.Outcome{Success: true, TotalPayout: 120}, 3)
	assert.Contains(t, win, "$120")
	assert.Contains(t, win, "3 crew")

	loss := resultText(crime, heist.Outcome{Success: false}, 2)
	assert.Contains(t, loss, "cops")
	assert.Contains(t, loss, "nothin'")

	ghost := resultText(crime, heist.Outcome{}, 0)
	assert.Contains(t, ghost, "nobody showed up")
}

func TestChosenTextSoloVariant(t *testing.T) {
	crime := heist.Crime{Name: "bottle-o dash", Difficulty: 2}

	assert.Contains(t, chosenText(crime, 1), "one brave idiot")
	assert.Contains(t, chosenText(crime, 4), "crew of 4")
}
