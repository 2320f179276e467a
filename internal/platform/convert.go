package platform

import (
	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/bwmarrin/discordgo"
)

// toEvent converts a Discord scheduled event into the domain type
func toEvent(se *discordgo.GuildScheduledEvent) events.Event {
	ev := events.Event{
		ID:          se.ID,
		GuildID:     se.GuildID,
		Name:        se.Name,
		Description: se.Description,
		Start:       se.ScheduledStartTime,
		Status:      toStatus(se.Status),
		Kind:        toKind(se.EntityType),
		ChannelID:   se.ChannelID,
		Location:    se.EntityMetadata.Location,
	}
	if se.ScheduledEndTime != nil {
		end := *se.ScheduledEndTime
		ev.End = &end
	}
	return ev
}

func toStatus(s discordgo.GuildScheduledEventStatus) events.Status {
	switch s {
	case discordgo.GuildScheduledEventStatusScheduled:
		return events.StatusScheduled
	case discordgo.GuildScheduledEventStatusActive:
		return events.StatusActive
	case discordgo.GuildScheduledEventStatusCompleted:
		return events.StatusCompleted
	case discordgo.GuildScheduledEventStatusCanceled:
		return events.StatusCanceled
	}
	return events.StatusUnknown
}

func toKind(t discordgo.GuildScheduledEventEntityType) events.Kind {
	switch t {
	case discordgo.GuildScheduledEventEntityTypeVoice:
		return events.KindVoice
	case discordgo.GuildScheduledEventEntityTypeStageInstance:
		return events.KindStage
	}
	return events.KindExternal
}

func fromKind(k events.Kind) discordgo.GuildScheduledEventEntityType {
	switch k {
	case events.KindVoice:
		return discordgo.GuildScheduledEventEntityTypeVoice
	case events.KindStage:
		return discordgo.GuildScheduledEventEntityTypeStageInstance
	}
	return discordgo.GuildScheduledEventEntityTypeExternal
}

// toParams builds the creation payload. External events require an end time
// and a location; channel events must not carry a location.
func toParams(spec events.Spec) *discordgo.GuildScheduledEventParams {
	start := spec.Start
	end := spec.End

	params := &discordgo.GuildScheduledEventParams{
		Name:               spec.Name,
		Description:        spec.Description,
		ScheduledStartTime: &start,
		ScheduledEndTime:   &end,
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
		EntityType:         fromKind(spec.Kind),
	}

	if params.EntityType == discordgo.GuildScheduledEventEntityTypeExternal {
		params.EntityMetadata = &discordgo.GuildScheduledEventEntityMetadata{Location: spec.Location}
	} else {
		params.ChannelID = spec.ChannelID
	}
	return params
}
