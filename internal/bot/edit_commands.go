package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/Raided-pro/EventManager/internal/platform"
	"github.com/bwmarrin/discordgo"
)

// Component actions of the edit workflow. The event ID travels in the custom
// ID, so no state is kept between interactions.
const (
	actionSelect   = "select"
	actionRepeat   = "repeat"
	actionMentions = "mentions"
	actionClear    = "clear"
	actionDone     = "done"

	maxSelectOptions = 25
	maxMentions      = 25
)

// handleEdit handles /events edit: shows a dropdown of the guild's events
func (h *CommandHandler) handleEdit(s Responder, i *discordgo.InteractionCreate) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	list, err := h.platform.ScheduledEvents(ctx, i.GuildID)
	if err != nil {
		log.Printf("[EVENTS-EDIT] ERROR: Failed to list events for guild %s: %v", i.GuildID, err)
		h.respondError(s, i, "❌ Could not load this server's events. Please try again.")
		return
	}

	if len(list) == 0 {
		h.respondError(s, i, "There are no events to edit, make an event using Discord.")
		return
	}

	now := h.now()
	options := make([]discordgo.SelectMenuOption, 0, len(list))
	for _, ev := range list {
		if len(options) == maxSelectOptions {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncateMessage(ev.Name, 100),
			Value:       ev.ID,
			Description: truncateMessage(fmt.Sprintf("%s, starts %s", ev.Status, startsRelative(ev, now)), 100),
		})
	}

	content := ""
	if enabled, err := h.guildRepo.IsEnabled(i.GuildID); err == nil && !enabled {
		content = "⚠️ Event management is not enabled in this server, repeats and pings only take effect after `/events enable`."
	} else if h.monitor != nil && h.monitor.GuildPaused(i.GuildID) {
		content = "⏸️ Scheduled checks for this server are paused after repeated errors reading its events. Use `/events sync` to retry now."
	}

	h.respond(s, i, "EVENTS-EDIT", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    customID(actionSelect),
						Placeholder: "Choose an event...",
						Options:     options,
					},
				}},
			},
		},
	})
}

// handleEditSelect shows the options of the chosen event
func (h *CommandHandler) handleEditSelect(s Responder, i *discordgo.InteractionCreate) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	values := i.MessageComponentData().Values
	if len(values) == 0 {
		h.respondError(s, i, "No event selected!")
		return
	}

	h.updateEditMessage(s, i, values[0], nil)
}

// handleEditRepeat stores the chosen cadence on the event
func (h *CommandHandler) handleEditRepeat(s Responder, i *discordgo.InteractionCreate, eventID string) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		h.respondError(s, i, "❌ No repeat selected.")
		return
	}

	h.updateEditMessage(s, i, eventID, func(p events.Params) (string, error) {
		return events.EncodeRepeat(p, values[0])
	})
}

// handleEditMentions stores the chosen users and roles. They are pinged in
// the channel this interaction happened in.
func (h *CommandHandler) handleEditMentions(s Responder, i *discordgo.InteractionCreate, eventID string) {
	mentions := selectedMentions(i.MessageComponentData())

	h.updateEditMessage(s, i, eventID, func(p events.Params) (string, error) {
		return events.EncodeMentions(p, mentions, i.ChannelID), nil
	})
}

// handleEditClear removes all pings and the notification channel
func (h *CommandHandler) handleEditClear(s Responder, i *discordgo.InteractionCreate, eventID string) {
	h.updateEditMessage(s, i, eventID, func(p events.Params) (string, error) {
		return events.EncodeMentions(p, nil, ""), nil
	})
}

// handleEditDone removes the controls and leaves the event link and options
func (h *CommandHandler) handleEditDone(s Responder, i *discordgo.InteractionCreate, eventID string) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	ev, err := h.platform.ScheduledEvent(ctx, i.GuildID, eventID)
	if err != nil {
		log.Printf("[EVENTS-EDIT] ERROR: Failed to get event %s: %v", eventID, err)
		h.respondError(s, i, "❌ Could not load the event, it may have been deleted.")
		return
	}

	h.respond(s, i, "EVENTS-EDIT", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    platform.EventURL(i.GuildID, ev.ID),
			Embeds:     []*discordgo.MessageEmbed{optionsEmbed(events.Decode(ev.Description), ev.Start, h.now())},
			Components: []discordgo.MessageComponent{},
		},
	})
}

// updateEditMessage re-reads the event, applies change to its parameters if
// given, and redraws the options message. Each change starts from the
// event's current description so edits made elsewhere are kept.
func (h *CommandHandler) updateEditMessage(s Responder, i *discordgo.InteractionCreate, eventID string, change func(events.Params) (string, error)) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	ev, err := h.platform.ScheduledEvent(ctx, i.GuildID, eventID)
	if err != nil {
		log.Printf("[EVENTS-EDIT] ERROR: Failed to get event %s: %v", eventID, err)
		h.respondError(s, i, "❌ Could not load the event, it may have been deleted.")
		return
	}

	params := events.Decode(ev.Description)
	if change != nil {
		desc, err := change(params)
		if errors.Is(err, events.ErrInvalidArgument) {
			h.respondError(s, i, "❌ "+err.Error())
			return
		}
		if err != nil {
			log.Printf("[EVENTS-EDIT] ERROR: Failed to encode description of event %s: %v", eventID, err)
			h.respondError(s, i, "❌ Could not update the event.")
			return
		}

		if err := h.platform.EditDescription(ctx, i.GuildID, eventID, desc); err != nil {
			log.Printf("[EVENTS-EDIT] ERROR: Failed to edit event %s: %v", eventID, err)
			h.respondError(s, i, "❌ Could not update the event. Check that I have the Manage Events permission.")
			return
		}
		log.Printf("[EVENTS-EDIT] Updated event %s in guild %s", eventID, i.GuildID)
		ev.Description = desc
		params = events.Decode(desc)
	}

	h.respond(s, i, "EVENTS-EDIT", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    platform.EventURL(i.GuildID, ev.ID),
			Embeds:     []*discordgo.MessageEmbed{optionsEmbed(params, ev.Start, h.now())},
			Components: editComponents(*ev, params),
		},
	})
}

// editComponents builds the controls shown once an event is selected
func editComponents(ev events.Event, params events.Params) []discordgo.MessageComponent {
	minMentions := 0

	repeatOptions := make([]discordgo.SelectMenuOption, 0, len(events.RepeatChoices))
	for _, choice := range events.RepeatChoices {
		r, _ := events.ParseRepeat(choice)
		repeatOptions = append(repeatOptions, discordgo.SelectMenuOption{
			Label:   r.Label(),
			Value:   choice,
			Default: r == params.Repeat,
		})
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    customID(actionSelect),
				Placeholder: truncateMessage(ev.Name, 150),
				Disabled:    true,
				Options:     []discordgo.SelectMenuOption{{Label: truncateMessage(ev.Name, 100), Value: ev.ID}},
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    customID(actionRepeat, ev.ID),
				Placeholder: "Choose a repeat...",
				Options:     repeatOptions,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.MentionableSelectMenu,
				CustomID:    customID(actionMentions, ev.ID),
				Placeholder: "Ping users/roles...",
				MinValues:   &minMentions,
				MaxValues:   maxMentions,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Remove pings",
				Style:    discordgo.SecondaryButton,
				CustomID: customID(actionClear, ev.ID),
			},
			discordgo.Button{
				Label:    "Done!",
				Style:    discordgo.SuccessButton,
				CustomID: customID(actionDone, ev.ID),
			},
		}},
	}
}

// selectedMentions converts the values of a mentionable select into mention
// tokens, marking the ones Discord resolved as roles
func selectedMentions(data discordgo.MessageComponentInteractionData) []events.Mention {
	mentions := make([]events.Mention, 0, len(data.Values))
	for _, id := range data.Values {
		if _, isRole := data.Resolved.Roles[id]; isRole {
			mentions = append(mentions, events.RoleMention(id))
		} else {
			mentions = append(mentions, events.UserMention(id))
		}
	}
	return mentions
}
