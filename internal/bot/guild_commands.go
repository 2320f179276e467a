package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Raided-pro/EventManager/internal/storage"
	"github.com/bwmarrin/discordgo"
)

// handleEnable handles /events enable
func (h *CommandHandler) handleEnable(s Responder, i *discordgo.InteractionCreate) {
	// Get the member who executed the command
	member := i.Member
	if member == nil {
		h.respondError(s, i, "Could not verify your permissions.")
		return
	}

	// Check for Manage Server permission
	if !h.hasManageServerPermission(member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	err := h.guildRepo.EnableGuild(i.GuildID)
	if errors.Is(err, storage.ErrAlreadyEnabled) {
		h.respondError(s, i, "ℹ️ Event management is already enabled in this server.")
		return
	}
	if err != nil {
		log.Printf("Error enabling guild %s: %v", i.GuildID, err)
		h.respondError(s, i, "❌ Failed to enable event management.")
		return
	}

	log.Printf("Event management enabled in guild %s", i.GuildID)
	h.respondSuccess(s, i, "✅ Event management enabled! Use `/events edit` to make events repeat and ping.")
}

// handleDisable handles /events disable
func (h *CommandHandler) handleDisable(s Responder, i *discordgo.InteractionCreate) {
	member := i.Member
	if member == nil {
		h.respondError(s, i, "Could not verify your permissions.")
		return
	}

	if !h.hasManageServerPermission(member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	err := h.guildRepo.DisableGuild(i.GuildID)
	if errors.Is(err, storage.ErrNotEnabled) {
		h.respondError(s, i, "ℹ️ Event management is not enabled in this server.")
		return
	}
	if err != nil {
		log.Printf("Error disabling guild %s: %v", i.GuildID, err)
		h.respondError(s, i, "❌ Failed to disable event management.")
		return
	}

	log.Printf("Event management disabled in guild %s", i.GuildID)
	h.respondSuccess(s, i, "✅ Event management disabled. Event settings stay in their descriptions and apply again if you re-enable.")
}

// handleSync handles /events sync: runs a pass for this guild now
func (h *CommandHandler) handleSync(s Responder, i *discordgo.InteractionCreate) {
	if !h.hasManageEventsPermission(i.Member) {
		h.respondError(s, i, noPermissionMessage)
		return
	}

	if h.monitor == nil {
		h.respondError(s, i, "❌ Event monitor is not configured correctly.")
		return
	}

	userID := interactionUserID(i)
	if limited, remaining := h.syncLimiter.Check(userID); limited {
		h.respondError(s, i, fmt.Sprintf("⏳ Please wait %d seconds before syncing again.", int(remaining.Seconds())+1))
		return
	}

	enabled, err := h.guildRepo.IsEnabled(i.GuildID)
	if err != nil {
		log.Printf("Error checking guild %s: %v", i.GuildID, err)
		h.respondError(s, i, "❌ Error checking server settings.")
		return
	}
	if !enabled {
		h.respondError(s, i, "⚠️ Event management is not enabled in this server. Use `/events enable` first.")
		return
	}

	// Send initial response
	respondErr := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "🔄 Checking this server's events...",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if respondErr != nil {
		log.Printf("Error sending initial response: %v", respondErr)
		return
	}

	h.syncLimiter.Record(userID)
	h.syncLimiter.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	paused := h.monitor.GuildPaused(i.GuildID)

	report, err := h.monitor.SyncGuild(ctx, i.GuildID)
	if err != nil {
		log.Printf("Error syncing guild %s: %v", i.GuildID, err)
		h.followUpError(s, i, "❌ Sync failed. Please try again later.")
		return
	}

	message := fmt.Sprintf("✅ Sync complete: %d managed events checked, %d rescheduled, %d started.",
		report.Events, report.Rescheduled, report.Started)
	if report.Failures > 0 {
		message = fmt.Sprintf("⚠️ Sync finished with %d failures: %d managed events checked, %d rescheduled, %d started. Check that I have the Manage Events permission.",
			report.Failures, report.Events, report.Rescheduled, report.Started)
	}
	if paused {
		if h.monitor.GuildPaused(i.GuildID) {
			message += "\n⏸️ Scheduled checks for this server are paused because I could not read its events. They resume automatically."
		} else {
			message += "\n▶️ Scheduled checks for this server were paused and have resumed."
		}
	}
	h.followUpSuccess(s, i, message)
}
