package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/heist"
)

// Room-facing message builders. Dazza speaks lowercase bogan; keep new lines
// in that register.

func announceText(votingOpensIn time.Duration) string {
	return fmt.Sprintf("🚨 oi! dazza's puttin' a crew together for a job. voting opens in %s, get yer excuses ready", shortDuration(votingOpensIn))
}

func votingText(crimes []heist.Crime, window time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "vote's open for %s! pick the job with !vote <name>:", shortDuration(window))
	for _, c := range crimes {
		fmt.Fprintf(&b, "\n  %s %s (pays %d-%d)", difficultyStars(c.Difficulty), c.Name, c.PayoutMin, c.PayoutMax)
	}
	return b.String()
}

func chosenText(crime heist.Crime, participants int) string {
	if participants == 1 {
		return fmt.Sprintf("one brave idiot is off to do the %s %s. back soon", crime.Name, difficultyStars(crime.Difficulty))
	}
	return fmt.Sprintf("crew of %d is off to do the %s %s. back soon", participants, crime.Name, difficultyStars(crime.Difficulty))
}

func resultText(crime heist.Crime, out heist.Outcome, participants int) string {
	if participants == 0 {
		return fmt.Sprintf("nobody showed up for the %s. job's a bust", crime.Name)
	}
	if out.Success {
		return fmt.Sprintf("💰 the %s came off! $%d split between %d crew. everyone's lookin' more trustworthy", crime.Name, out.TotalPayout, participants)
	}
	return fmt.Sprintf("🚔 cops got wind of the %s. crew of %d legged it with nothin'", crime.Name, participants)
}

func cancelledText(reason string) string {
	return fmt.Sprintf("heist's off: %s", reason)
}

func difficultyStars(d int) string {
	if d < 1 {
		d = 1
	}
	if d > 5 {
		d = 5
	}
	return strings.Repeat("★", d) + strings.Repeat("☆", 5-d)
}

// shortDuration renders a duration the way you'd say it in chat: "45s", "3m",
// "2m30s".
func shortDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%ds", m, s)
}
