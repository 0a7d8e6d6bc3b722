package bot

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) registerCommands() error {
	commands, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", commandDefinitions())
	if err != nil {
		return err
	}
	b.logger.Info("commands registered", zap.Int("count", len(commands)))
	return nil
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)
	noDMs := false

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "category",
			Description:              "Manage the channel categories checked during invite checks",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a category to the invite check list",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "category",
							Description:  "The category to add",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a category from the invite check list",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "category",
							Description:  "The category to remove",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
						},
					},
				},
			},
		},
		{
			Name:                     "check",
			Description:              "Run an invite check for this server",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &noDMs,
		},
		{
			Name:                     "ignore",
			Description:              "Manage channels skipped during invite checks",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Ignore a channel during invite checks",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "The channel to ignore",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Stop ignoring a channel during invite checks",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "The channel to stop ignoring",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
			},
		},
		{
			Name:                     "ping",
			Description:              "Show the bot's gateway latency",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &noDMs,
		},
		{
			Name:                     "set",
			Description:              "Change this server's invite check settings",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &noDMs,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "results-channel",
					Description: "Set or clear the channel invite check results are sent to",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "The results channel (omit to clear)",
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
								discordgo.ChannelTypeGuildNews,
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "embed-color",
					Description: "Set the color used for invite check embeds",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "color",
							Description: "A hex color like #5865F2",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:                     "settings",
			Description:              "Show this server's invite check settings",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &noDMs,
		},
		{
			Name:                     "stats",
			Description:              "Show bot statistics",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &noDMs,
		},
	}
}
