package bot

import (
	"fmt"
	"time"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

const (
	embedColor  = 0x5865F2
	embedFooter = "Change the ping channel by setting pings in another channel."
)

// startsValue renders a start time as a Discord timestamp plus a relative hint
func startsValue(start, now time.Time) string {
	return fmt.Sprintf("<t:%d:F> (%s)", start.Unix(), humanize.RelTime(start, now, "ago", "from now"))
}

// startsRelative renders how far an event's start is from now
func startsRelative(ev events.Event, now time.Time) string {
	return humanize.RelTime(ev.Start, now, "ago", "from now")
}

func mentionsValue(mentions []events.Mention) string {
	if len(mentions) == 0 {
		return "None"
	}
	return truncateMessage(events.RenderMentions(mentions), 1024)
}

func channelValue(channelID string) string {
	if channelID == "" {
		return "None"
	}
	return "<#" + channelID + ">"
}

// optionsEmbed shows the parameters stored on an event
func optionsEmbed(p events.Params, start, now time.Time) *discordgo.MessageEmbed {
	repeat := p.Repeat
	if !repeat.Valid() {
		repeat = events.RepeatNone
	}

	return &discordgo.MessageEmbed{
		Title: "Raided Event Options",
		Type:  discordgo.EmbedTypeRich,
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Repeat", Value: repeat.Label()},
			{Name: "Ping", Value: mentionsValue(p.Mentions)},
			{Name: "Channel", Value: channelValue(p.Channel)},
			{Name: "Starts", Value: startsValue(start, now)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: embedFooter},
	}
}

func kindValue(d events.Draft) string {
	switch d.Kind {
	case events.KindVoice:
		return "Voice " + channelValue(d.ChannelID)
	case events.KindStage:
		return "Stage " + channelValue(d.ChannelID)
	}
	return "External"
}

// draftEmbed shows an event that is still being created
func draftEmbed(d events.Draft, now time.Time) *discordgo.MessageEmbed {
	description := d.FreeText
	if description == "" {
		description = "*No description*"
	}

	return &discordgo.MessageEmbed{
		Title:       "New event: " + d.Name,
		Type:        discordgo.EmbedTypeRich,
		Color:       embedColor,
		Description: truncateMessage(description, 4096),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Starts", Value: startsValue(d.Start, now)},
			{Name: "Duration", Value: fmt.Sprintf("%d minutes", int(d.Duration.Minutes())), Inline: true},
			{Name: "Repeat", Value: d.Repeat.Label(), Inline: true},
			{Name: "Where", Value: kindValue(d), Inline: true},
			{Name: "Ping", Value: mentionsValue(d.Mentions)},
			{Name: "Channel", Value: channelValue(d.NotifyChannel)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Pings are sent to the channel you pick them in."},
	}
}
