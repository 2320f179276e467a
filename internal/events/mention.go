package events

import "strings"

// roleMarker prefixes role IDs inside a mention token
const roleMarker = "&"

// Mention is a user or role identifier as stored in a description.
// User mentions are the bare ID, role mentions are prefixed with "&".
type Mention string

// UserMention returns the token for a user ID
func UserMention(id string) Mention { return Mention(id) }

// RoleMention returns the token for a role ID
func RoleMention(id string) Mention { return Mention(roleMarker + id) }

// IsRole reports whether the token refers to a role
func (m Mention) IsRole() bool { return strings.HasPrefix(string(m), roleMarker) }

// ID returns the identifier without the role marker
func (m Mention) ID() string { return strings.TrimPrefix(string(m), roleMarker) }

// Render returns the Discord mention syntax, <@id> or <@&id>
func (m Mention) Render() string { return "<@" + string(m) + ">" }

// RenderMentions concatenates the rendered mentions with no separator
func RenderMentions(mentions []Mention) string {
	var b strings.Builder
	for _, m := range mentions {
		b.WriteString(m.Render())
	}
	return b.String()
}

// StartingMessage is the notification sent when an event starts
func StartingMessage(mentions []Mention, eventName string) string {
	return RenderMentions(mentions) + " " + eventName + " is starting!"
}
