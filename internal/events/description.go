package events

import (
	"strconv"
	"strings"
	"unicode"
)

// Marker separates the human-written description from the parameter block.
// Descriptions without it are not managed by the bot.
const Marker = "#!raided"

// paramsSeparator is written between the free text and the marker
const paramsSeparator = "\n\n\n\n\n"

const (
	keyRepeat   = "repeat"
	keyMentions = "mentions"
	keyChannel  = "channel"
)

// Params is the decoded form of an event description
type Params struct {
	FreeText string
	Repeat   Repeat
	Mentions []Mention
	// Channel is where mentions are pinged when the event starts. It is only
	// set together with Mentions.
	Channel string
	// Malformed lists parameter keys whose values could not be parsed and
	// were treated as absent.
	Malformed []string
}

// IsManaged reports whether description carries a parameter block
func IsManaged(description string) bool {
	return strings.Contains(description, Marker)
}

// Decode parses a description. It never fails: unknown keys are ignored and
// unparseable values are treated as absent.
//
// The first occurrence of Marker is the boundary, so free text containing
// the marker itself is not supported.
func Decode(description string) Params {
	before, after, found := strings.Cut(description, Marker)
	p := Params{FreeText: trimRight(before)}
	if !found {
		return p
	}

	for _, line := range strings.Split(after, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line[1:], "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case keyRepeat:
			p.Repeat = Repeat(value)
		case keyMentions:
			mentions, bad := parseMentions(value)
			p.Mentions = mentions
			if bad {
				p.Malformed = append(p.Malformed, keyMentions)
			}
		case keyChannel:
			if isSnowflake(value) {
				p.Channel = value
			} else {
				p.Channel = ""
				p.Malformed = append(p.Malformed, keyChannel)
			}
		}
	}

	// A channel without anyone to ping carries no meaning
	if len(p.Mentions) == 0 {
		p.Channel = ""
	}

	return p
}

// Encode renders p back into a description. The parameter block is omitted
// entirely when every parameter has its default value.
func Encode(p Params) string {
	var block strings.Builder

	if p.Repeat != RepeatNone {
		writeParam(&block, keyRepeat, string(p.Repeat))
	}
	if len(p.Mentions) > 0 {
		tokens := make([]string, len(p.Mentions))
		for i, m := range p.Mentions {
			tokens[i] = string(m)
		}
		writeParam(&block, keyMentions, strings.Join(tokens, ","))
		if p.Channel != "" {
			writeParam(&block, keyChannel, p.Channel)
		}
	}

	freeText := trimRight(p.FreeText)
	if block.Len() == 0 {
		return freeText
	}
	return freeText + paramsSeparator + Marker + "\n" + block.String()
}

// EncodeRepeat returns the description of current with its cadence replaced.
// An unrecognised cadence fails with ErrInvalidArgument.
func EncodeRepeat(current Params, repeat string) (string, error) {
	r, err := ParseRepeat(repeat)
	if err != nil {
		return "", err
	}
	current.Repeat = r
	return Encode(current), nil
}

// EncodeMentions returns the description of current with its mentions and
// notification channel replaced. An empty list clears both.
func EncodeMentions(current Params, mentions []Mention, channel string) string {
	if len(mentions) == 0 {
		current.Mentions = nil
		current.Channel = ""
	} else {
		current.Mentions = append([]Mention(nil), mentions...)
		current.Channel = channel
	}
	return Encode(current)
}

func writeParam(b *strings.Builder, key, value string) {
	b.WriteString("#")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(value)
	b.WriteString("\n")
}

func parseMentions(value string) ([]Mention, bool) {
	var mentions []Mention
	bad := false
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if !isSnowflake(strings.TrimPrefix(token, roleMarker)) {
			bad = true
			continue
		}
		mentions = append(mentions, Mention(token))
	}
	return mentions, bad
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func trimRight(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}
