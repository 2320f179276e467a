package bot

import (
	"log"
	"time"

	"github.com/Raided-pro/EventManager/internal/storage"
	"github.com/bwmarrin/discordgo"
)

const (
	commandName = "events"

	// interactionTimeout bounds platform calls made before answering an
	// interaction, which Discord expects within three seconds
	interactionTimeout  = 2500 * time.Millisecond
	syncTimeout         = 30 * time.Second
	defaultSyncCooldown = 30 * time.Second

	noPermissionMessage = "You don't have permissions to use this command."
)

// HandlerConfig holds settings for the interaction workflows
type HandlerConfig struct {
	Location        *time.Location // timezone used to read dates typed into the create form
	DefaultLocation string         // location of external events created by the bot
	SyncCooldown    time.Duration  // minimum time between manual syncs per user
}

// CommandHandler handles the /events slash command group and the components
// and modals it creates.
// Individual command implementations are split across:
//   - edit_commands.go: the edit workflow (select an event, change repeat and pings)
//   - create_commands.go: the create workflow (modal, draft options, confirm)
//   - guild_commands.go: enable, disable and sync
//   - command_utils.go: Shared utility functions
type CommandHandler struct {
	platform    EventPlatform
	guildRepo   storage.GuildRepository
	draftRepo   storage.DraftRepository
	monitor     *EventMonitor
	config      HandlerConfig
	syncLimiter *RateLimiter
	now         func() time.Time
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(platform EventPlatform, guildRepo storage.GuildRepository, draftRepo storage.DraftRepository, config HandlerConfig) *CommandHandler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.DefaultLocation == "" {
		config.DefaultLocation = "TBA"
	}
	if config.SyncCooldown <= 0 {
		config.SyncCooldown = defaultSyncCooldown
	}
	return &CommandHandler{
		platform:    platform,
		guildRepo:   guildRepo,
		draftRepo:   draftRepo,
		config:      config,
		syncLimiter: NewRateLimiter(config.SyncCooldown),
		now:         time.Now,
	}
}

// SetEventMonitor sets the monitor used by the sync command (called after monitor is created)
func (h *CommandHandler) SetEventMonitor(monitor *EventMonitor) {
	h.monitor = monitor
}

// Commands returns the application commands this handler serves
func (h *CommandHandler) Commands() []*discordgo.ApplicationCommand {
	manageEvents := int64(discordgo.PermissionManageEvents)
	dmPermission := false

	return []*discordgo.ApplicationCommand{
		{
			Name:                     commandName,
			Description:              "Manage scheduled events",
			DefaultMemberPermissions: &manageEvents,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "edit",
					Description: "Edit the repeat and pings of an event",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a new event",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "enable",
					Description: "Let the bot repeat, ping and start events in this server (Manage Server only)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "disable",
					Description: "Stop managing events in this server (Manage Server only)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "sync",
					Description: "Check this server's events right now",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "help",
					Description: "Show how to use the event commands",
				},
			},
		},
	}
}

// RegisterCommands registers all slash commands with Discord
func (h *CommandHandler) RegisterCommands(s *discordgo.Session) error {
	created, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", h.Commands())
	if err != nil {
		return err
	}
	for _, cmd := range created {
		log.Printf("Registered command: %s", cmd.Name)
	}
	return nil
}

// HandleCommands sets up the command handler routing
func (h *CommandHandler) HandleCommands(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		h.handleInteraction(s, i)
	})
}

// handleInteraction routes slash commands, components and modal submissions
func (h *CommandHandler) handleInteraction(s Responder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.Name != commandName || len(data.Options) == 0 {
			return
		}
		if i.GuildID == "" {
			h.respondError(s, i, "This command can only be used in a server.")
			return
		}
		h.handleSubcommand(s, i, data.Options[0].Name)

	case discordgo.InteractionMessageComponent:
		action, arg, ok := parseCustomID(i.MessageComponentData().CustomID)
		if !ok || i.GuildID == "" {
			return
		}
		h.handleComponent(s, i, action, arg)

	case discordgo.InteractionModalSubmit:
		action, _, ok := parseCustomID(i.ModalSubmitData().CustomID)
		if !ok || i.GuildID == "" {
			return
		}
		if action == actionCreate {
			h.handleCreateSubmit(s, i)
		}
	}
}

func (h *CommandHandler) handleSubcommand(s Responder, i *discordgo.InteractionCreate, name string) {
	switch name {
	// Edit workflow (edit_commands.go)
	case "edit":
		h.handleEdit(s, i)

	// Create workflow (create_commands.go)
	case "create":
		h.handleCreate(s, i)

	// Guild commands (guild_commands.go)
	case "enable":
		h.handleEnable(s, i)
	case "disable":
		h.handleDisable(s, i)
	case "sync":
		h.handleSync(s, i)

	case "help":
		h.handleHelp(s, i)
	}
}

func (h *CommandHandler) handleComponent(s Responder, i *discordgo.InteractionCreate, action, arg string) {
	switch action {
	// Edit workflow (edit_commands.go)
	case actionSelect:
		h.handleEditSelect(s, i)
	case actionRepeat:
		h.handleEditRepeat(s, i, arg)
	case actionMentions:
		h.handleEditMentions(s, i, arg)
	case actionClear:
		h.handleEditClear(s, i, arg)
	case actionDone:
		h.handleEditDone(s, i, arg)

	// Create workflow (create_commands.go)
	case actionDraftChannel:
		h.handleDraftChannel(s, i)
	case actionDraftMentions:
		h.handleDraftMentions(s, i)
	case actionConfirm:
		h.handleDraftConfirm(s, i)
	case actionCancel:
		h.handleDraftCancel(s, i)
	}
}

// handleHelp handles the help subcommand
func (h *CommandHandler) handleHelp(s Responder, i *discordgo.InteractionCreate) {
	helpMessage := "📅 **Event Commands Help**\n\n" +
		"**Events:**\n" +
		"• `/events create` - Create an event, then pick a channel and who to ping\n" +
		"• `/events edit` - Pick an event and set how often it repeats and who gets pinged\n" +
		"• `/events sync` - Check this server's events right now\n\n" +
		"**Server Settings (Manage Server):**\n" +
		"• `/events enable` - Let the bot repeat, ping and start events here\n" +
		"• `/events disable` - Stop managing events here\n\n" +
		"**How it works:**\n" +
		"The bot checks events every minute. Repeating events get their next occurrence " +
		"a few minutes before they start, and pings are sent to the channel where you set them " +
		"when the event begins. Settings are kept at the bottom of the event description below `#!raided`.\n\n" +
		"• `/events help` - Show this help message"

	h.respondSuccess(s, i, helpMessage)
}
