package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Raided-pro/EventManager/internal/events"
	"github.com/Raided-pro/EventManager/internal/platform"
	"github.com/bwmarrin/discordgo"
)

// Modal and component actions of the create workflow. The draft itself is
// kept in the draft repository, keyed by guild and user.
const (
	actionCreate        = "create"
	actionDraftChannel  = "draft-channel"
	actionDraftMentions = "draft-mentions"
	actionConfirm       = "confirm"
	actionCancel        = "cancel"

	fieldName        = "name"
	fieldDescription = "description"
	fieldDate        = "date"
	fieldDuration    = "duration"
	fieldRepeat      = "repeat"

	draftExpiredMessage = "⌛ This draft has expired, run `/events create` again."
)

// handleCreate handles /events create: opens the event form
func (h *CommandHandler) handleCreate(s Responder, i *discordgo.InteractionCreate) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	h.respond(s, i, "EVENTS-CREATE", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID(actionCreate),
			Title:    "Create Event",
			Components: []discordgo.MessageComponent{
				textInputRow(discordgo.TextInput{
					CustomID:  fieldName,
					Label:     "Name",
					Style:     discordgo.TextInputShort,
					Required:  true,
					MaxLength: maxEventNameLength,
				}),
				textInputRow(discordgo.TextInput{
					CustomID:  fieldDescription,
					Label:     "Description",
					Style:     discordgo.TextInputParagraph,
					MaxLength: maxEventDescriptionLength,
				}),
				textInputRow(discordgo.TextInput{
					CustomID:    fieldDate,
					Label:       "Start (MM/DD/YYYY HH:MM)",
					Style:       discordgo.TextInputShort,
					Placeholder: "06/01/2026 19:30 or next friday 8pm",
					Required:    true,
					MaxLength:   100,
				}),
				textInputRow(discordgo.TextInput{
					CustomID:    fieldDuration,
					Label:       "Duration in minutes",
					Style:       discordgo.TextInputShort,
					Placeholder: "60",
					MaxLength:   5,
				}),
				textInputRow(discordgo.TextInput{
					CustomID:    fieldRepeat,
					Label:       "Repeat",
					Style:       discordgo.TextInputShort,
					Placeholder: strings.Join(events.RepeatChoices, ", "),
					MaxLength:   10,
				}),
			},
		},
	})
}

func textInputRow(input discordgo.TextInput) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}
}

// handleCreateSubmit validates the form, stores the draft and shows the
// options to pick a channel and pings
func (h *CommandHandler) handleCreateSubmit(s Responder, i *discordgo.InteractionCreate) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	values := modalValues(i.ModalSubmitData())

	if err := isValidEventName(values[fieldName]); err != nil {
		h.respondError(s, i, "❌ "+err.Error())
		return
	}

	start, err := parseEventDate(values[fieldDate], h.config.Location, h.now())
	if err != nil {
		h.respondError(s, i, "❌ "+err.Error())
		return
	}

	duration, err := parseDurationMinutes(values[fieldDuration])
	if err != nil {
		h.respondError(s, i, "❌ "+err.Error())
		return
	}

	repeat, err := events.ParseRepeat(values[fieldRepeat])
	if err != nil {
		h.respondError(s, i, "❌ "+err.Error())
		return
	}

	draft, err := events.NewDraft(values[fieldName], values[fieldDescription], start, duration, repeat)
	if err != nil {
		h.respondError(s, i, "❌ "+err.Error())
		return
	}

	if err := h.draftRepo.SaveDraft(i.GuildID, interactionUserID(i), draft); err != nil {
		log.Printf("[EVENTS-CREATE] ERROR: Failed to save draft: %v", err)
		h.respondError(s, i, "❌ Could not save the draft. Please try again.")
		return
	}

	h.respond(s, i, "EVENTS-CREATE", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    "Pick a voice or stage channel (leave empty for an external event) and who to ping, then confirm.",
			Flags:      discordgo.MessageFlagsEphemeral,
			Embeds:     []*discordgo.MessageEmbed{draftEmbed(draft, h.now())},
			Components: draftComponents(),
		},
	})
}

// handleDraftChannel attaches the chosen voice or stage channel to the draft
func (h *CommandHandler) handleDraftChannel(s Responder, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	h.updateDraft(s, i, func(d events.Draft) events.Draft {
		if len(data.Values) == 0 {
			return d.WithChannel("", events.KindExternal)
		}

		channelID := data.Values[0]
		kind := events.KindVoice
		if ch, ok := data.Resolved.Channels[channelID]; ok && ch.Type == discordgo.ChannelTypeGuildStageVoice {
			kind = events.KindStage
		}
		return d.WithChannel(channelID, kind)
	})
}

// handleDraftMentions sets who to ping, in the channel this interaction happened in
func (h *CommandHandler) handleDraftMentions(s Responder, i *discordgo.InteractionCreate) {
	mentions := selectedMentions(i.MessageComponentData())

	h.updateDraft(s, i, func(d events.Draft) events.Draft {
		return d.WithMentions(mentions, i.ChannelID)
	})
}

// updateDraft loads the user's draft, applies step and saves the result
func (h *CommandHandler) updateDraft(s Responder, i *discordgo.InteractionCreate, step func(events.Draft) events.Draft) {
	userID := interactionUserID(i)

	draft, err := h.draftRepo.GetDraft(i.GuildID, userID)
	if err != nil {
		log.Printf("[EVENTS-CREATE] ERROR: Failed to load draft: %v", err)
		h.respondError(s, i, "❌ Could not load the draft. Please try again.")
		return
	}
	if draft == nil {
		h.respondError(s, i, draftExpiredMessage)
		return
	}

	next := step(*draft)
	if err := h.draftRepo.SaveDraft(i.GuildID, userID, next); err != nil {
		log.Printf("[EVENTS-CREATE] ERROR: Failed to save draft: %v", err)
		h.respondError(s, i, "❌ Could not save the draft. Please try again.")
		return
	}

	h.respond(s, i, "EVENTS-CREATE", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{draftEmbed(next, h.now())},
			Components: draftComponents(),
		},
	})
}

// handleDraftConfirm creates the event from the draft
func (h *CommandHandler) handleDraftConfirm(s Responder, i *discordgo.InteractionCreate) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	userID := interactionUserID(i)

	draft, err := h.draftRepo.GetDraft(i.GuildID, userID)
	if err != nil {
		log.Printf("[EVENTS-CREATE] ERROR: Failed to load draft: %v", err)
		h.respondError(s, i, "❌ Could not load the draft. Please try again.")
		return
	}
	if draft == nil {
		h.respondError(s, i, draftExpiredMessage)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	spec := draft.Spec(h.config.DefaultLocation)
	ev, err := h.platform.CreateEvent(ctx, i.GuildID, spec)
	if err != nil {
		log.Printf("[EVENTS-CREATE] ERROR: Failed to create event in guild %s: %v", i.GuildID, err)
		h.respondError(s, i, "❌ Could not create the event. Check that I have the Manage Events permission and can see the channel.")
		return
	}
	log.Printf("[EVENTS-CREATE] Created event %s (%q) in guild %s", ev.ID, ev.Name, i.GuildID)

	if err := h.draftRepo.DeleteDraft(i.GuildID, userID); err != nil {
		log.Printf("[EVENTS-CREATE] Warning: Failed to delete draft: %v", err)
	}

	h.respond(s, i, "EVENTS-CREATE", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    fmt.Sprintf("✅ Created **%s**\n%s", draft.Name, platform.EventURL(i.GuildID, ev.ID)),
			Embeds:     []*discordgo.MessageEmbed{optionsEmbed(draft.Params(), draft.Start, h.now())},
			Components: []discordgo.MessageComponent{},
		},
	})
}

// handleDraftCancel discards the draft
func (h *CommandHandler) handleDraftCancel(s Responder, i *discordgo.InteractionCreate) {
	if err := h.draftRepo.DeleteDraft(i.GuildID, interactionUserID(i)); err != nil {
		log.Printf("[EVENTS-CREATE] Warning: Failed to delete draft: %v", err)
	}

	h.respond(s, i, "EVENTS-CREATE", &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "Event creation canceled.",
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
}

// draftComponents builds the controls of the draft options message
func draftComponents() []discordgo.MessageComponent {
	minValues := 0

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:     discordgo.ChannelSelectMenu,
				CustomID:     customID(actionDraftChannel),
				Placeholder:  "Voice or stage channel (empty for external)...",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice},
				MinValues:    &minValues,
				MaxValues:    1,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.MentionableSelectMenu,
				CustomID:    customID(actionDraftMentions),
				Placeholder: "Ping users/roles...",
				MinValues:   &minValues,
				MaxValues:   maxMentions,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Confirm",
				Style:    discordgo.SuccessButton,
				CustomID: customID(actionConfirm),
			},
			discordgo.Button{
				Label:    "Cancel",
				Style:    discordgo.DangerButton,
				CustomID: customID(actionCancel),
			},
		}},
	}
}

// modalValues collects the text inputs of a submitted modal by custom ID
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, c := range data.Components {
		var row []discordgo.MessageComponent
		switch r := c.(type) {
		case *discordgo.ActionsRow:
			row = r.Components
		case discordgo.ActionsRow:
			row = r.Components
		}
		for _, inner := range row {
			switch input := inner.(type) {
			case *discordgo.TextInput:
				values[input.CustomID] = input.Value
			case discordgo.TextInput:
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}
