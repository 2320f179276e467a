package bot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	wcommon "github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Validation helper functions for command input validation

// eventDateLayout is the strict date format accepted by the create form
const eventDateLayout = "01/02/2006 15:04"

const (
	maxEventNameLength        = 100
	maxEventDescriptionLength = 900
	maxDurationMinutes        = 7 * 24 * 60
)

var dateParser *when.Parser

func init() {
	dateParser = when.New(&rules.Options{
		Distance:     10,
		MatchByOrder: true,
	})

	dateParser.Add(
		en.Weekday(rules.Override),
		en.CasualDate(rules.Override),
		en.CasualTime(rules.Override),
		en.Hour(rules.Override),
		en.HourMinute(rules.Override),
		en.Deadline(rules.Override),
		en.ExactMonthDate(rules.Override),
	)
	dateParser.Add(wcommon.All...)
}

// parseEventDate parses the start date typed into the create form. The strict
// MM/DD/YYYY HH:MM layout is tried first, then natural language relative to
// now. The result must lie in the future.
func parseEventDate(input string, loc *time.Location, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("start date cannot be empty")
	}

	start, err := time.ParseInLocation(eventDateLayout, input, loc)
	if err != nil {
		r, perr := dateParser.Parse(input, now.In(loc))
		if perr != nil || r == nil {
			return time.Time{}, fmt.Errorf("could not understand date %q, use MM/DD/YYYY HH:MM (e.g., 06/01/2026 19:30) or something like 'next friday 8pm'", input)
		}
		start = r.Time
	}

	if !start.After(now) {
		return time.Time{}, fmt.Errorf("start date must be in the future")
	}
	return start, nil
}

// parseDurationMinutes parses the duration field of the create form
func parseDurationMinutes(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Hour, nil
	}

	minutes, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("duration must be a whole number of minutes")
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	if minutes > maxDurationMinutes {
		return 0, fmt.Errorf("duration too long (max %d minutes)", maxDurationMinutes)
	}

	return time.Duration(minutes) * time.Minute, nil
}

// isValidEventName validates the name of a new event
func isValidEventName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("event name cannot be empty")
	}

	if utf8.RuneCountInString(name) > maxEventNameLength {
		return fmt.Errorf("event name too long (max %d characters)", maxEventNameLength)
	}

	return nil
}

// truncateMessage truncates a message to maxLength characters with ellipsis,
// never splitting a character
func truncateMessage(message string, maxLength int) string {
	if utf8.RuneCountInString(message) <= maxLength {
		return message
	}

	runes := []rune(message)
	if maxLength < 3 {
		return string(runes[:maxLength])
	}

	return string(runes[:maxLength-3]) + "..."
}

// RateLimiter tracks command cooldowns per user
type RateLimiter struct {
	mu        sync.Mutex
	cooldowns map[string]time.Time
	duration  time.Duration
}

// NewRateLimiter creates a new rate limiter with specified cooldown duration
func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	return &RateLimiter{
		cooldowns: make(map[string]time.Time),
		duration:  cooldown,
	}
}

// Check returns true if the user is rate limited, false otherwise
func (rl *RateLimiter) Check(userID string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if lastUse, exists := rl.cooldowns[userID]; exists {
		elapsed := time.Since(lastUse)
		if elapsed < rl.duration {
			remaining := rl.duration - elapsed
			return true, remaining
		}
	}
	return false, 0
}

// Record records a command use for a user
func (rl *RateLimiter) Record(userID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cooldowns[userID] = time.Now()
}

// Cleanup removes expired cooldowns (should be called periodically)
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for userID, lastUse := range rl.cooldowns {
		if now.Sub(lastUse) > rl.duration*2 {
			delete(rl.cooldowns, userID)
		}
	}
}
