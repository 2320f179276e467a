package bot

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Command Utility Functions
// Shared helper functions used across all command handlers

// customIDPrefix namespaces every component and modal this module creates
const customIDPrefix = "events:"

// Responder is the part of *discordgo.Session used to answer interactions
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// customID joins an action and its arguments, e.g. events:repeat:123
func customID(action string, args ...string) string {
	return customIDPrefix + strings.Join(append([]string{action}, args...), ":")
}

// parseCustomID splits a custom ID into its action and argument. ok is false
// for IDs that do not belong to this module.
func parseCustomID(id string) (action, arg string, ok bool) {
	rest, found := strings.CutPrefix(id, customIDPrefix)
	if !found || rest == "" {
		return "", "", false
	}
	action, arg, _ = strings.Cut(rest, ":")
	return action, arg, true
}

func (h *CommandHandler) hasManageServerPermission(member *discordgo.Member) bool {
	// MANAGE_GUILD permission value
	const manageGuildPermission int64 = 0x0000000000000020

	// Check member permissions
	permissions := member.Permissions

	// Check if user has administrator permission (grants all permissions)
	if permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	// Check if user has manage server permission
	if permissions&manageGuildPermission != 0 {
		return true
	}

	return false
}

// hasManageEventsPermission checks the permission required to edit and create events
func (h *CommandHandler) hasManageEventsPermission(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	return member.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageEvents) != 0
}

// interactionUserID returns the ID of whoever triggered the interaction
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// respondError sends an error response to the interaction
func (h *CommandHandler) respondError(s Responder, i *discordgo.InteractionCreate, message string) {
	// Truncate message to Discord's 2000 character limit
	message = truncateMessage(message, 2000)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral, // Only visible to the user
		},
	})
	if err != nil {
		log.Printf("Error sending error response: %v", err)
	}
}

// respondSuccess sends an ephemeral success response to the interaction
func (h *CommandHandler) respondSuccess(s Responder, i *discordgo.InteractionCreate, message string) {
	// Truncate message to Discord's 2000 character limit
	message = truncateMessage(message, 2000)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error sending success response: %v", err)
	}
}

// respond sends a prepared response and logs failures under tag
func (h *CommandHandler) respond(s Responder, i *discordgo.InteractionCreate, tag string, resp *discordgo.InteractionResponse) {
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		log.Printf("[%s] Error responding to interaction: %v", tag, err)
	}
}

// followUpError sends an ephemeral error follow-up message
func (h *CommandHandler) followUpError(s Responder, i *discordgo.InteractionCreate, message string) {
	// Truncate message to Discord's 2000 character limit
	message = truncateMessage(message, 2000)

	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("Error sending follow-up error: %v", err)
	}
}

// followUpSuccess sends an ephemeral success follow-up message
func (h *CommandHandler) followUpSuccess(s Responder, i *discordgo.InteractionCreate, message string) {
	// Truncate message to Discord's 2000 character limit
	message = truncateMessage(message, 2000)

	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("Error sending follow-up success: %v", err)
	}
}
