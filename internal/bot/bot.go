// Package bot wires the Discord session to the invite-check pipeline:
// gateway events feed the store, slash commands drive scans and settings.
package bot

import (
	"context"
	"time"

	"invite-sentry/internal/config"
	"invite-sentry/internal/invite"
	"invite-sentry/internal/scan"
	"invite-sentry/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// requiredCommandPermissions is what the bot needs in a channel before it
// accepts a command invoked there.
const requiredCommandPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionEmbedLinks |
	discordgo.PermissionReadMessageHistory

type commandHandler func(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate)

type Bot struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	runner   *scan.Runner
	session  *discordgo.Session
	messages scan.MessageSource
	handlers map[string]commandHandler
	started  time.Time
}

func New(cfg config.Config, session *discordgo.Session, logger *zap.Logger, store *storage.Store, runner *scan.Runner) *Bot {
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	session.State.MaxMessageCount = cfg.MessageFetchLimit

	b := &Bot{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		runner:   runner,
		session:  session,
		messages: scan.NewCachedMessageSource(session),
		started:  time.Now(),
	}
	b.handlers = map[string]commandHandler{
		"category": b.handleCategory,
		"check":    b.handleCheck,
		"ignore":   b.handleIgnore,
		"ping":     b.handlePing,
		"set":      b.handleSet,
		"settings": b.handleSettings,
		"stats":    b.handleStats,
	}
	return b
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onChannelDelete)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}
	return b.registerCommands()
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, event *discordgo.GuildCreate) {
	if err := b.store.CreateSettings(context.Background(), event.ID); err != nil {
		b.logger.Error("settings create failed", zap.String("guild_id", event.ID), zap.Error(err))
	}
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, event *discordgo.GuildDelete) {
	if event.Unavailable {
		// Outage, not a removal.
		return
	}
	ctx := context.Background()
	if err := b.store.DeleteSettings(ctx, event.ID); err != nil {
		b.logger.Error("settings delete failed", zap.String("guild_id", event.ID), zap.Error(err))
		return
	}
	if err := b.store.DeleteGuildInvites(ctx, event.ID); err != nil {
		b.logger.Error("invite teardown failed", zap.String("guild_id", event.ID), zap.Error(err))
	}
}

func (b *Bot) onChannelDelete(_ *discordgo.Session, event *discordgo.ChannelDelete) {
	if event.Channel == nil || event.Channel.GuildID == "" {
		return
	}
	if err := b.store.RemoveChannel(context.Background(), event.Channel.GuildID, event.Channel.ID); err != nil {
		b.logger.Error("channel removal failed",
			zap.String("guild_id", event.Channel.GuildID),
			zap.String("channel_id", event.Channel.ID),
			zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return
	}
	codes := invite.ExtractCodes(msg.Content)
	if len(codes) == 0 {
		return
	}
	if err := b.store.CreateInvites(context.Background(), msg.GuildID, codes); err != nil {
		b.logger.Error("invite create failed", zap.String("guild_id", msg.GuildID), zap.Error(err))
	}
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if interaction.GuildID == "" || interaction.Member == nil {
		return
	}
	if interaction.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return
	}
	permissions, err := session.State.UserChannelPermissions(session.State.User.ID, interaction.ChannelID)
	if err != nil || permissions&requiredCommandPermissions != requiredCommandPermissions {
		return
	}

	handler, ok := b.handlers[interaction.ApplicationCommandData().Name]
	if !ok {
		return
	}
	handler(context.Background(), session, interaction)
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

func (b *Bot) deferResponse(session *discordgo.Session, interaction *discordgo.InteractionCreate) error {
	return session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) editResponseEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, err := session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		b.logger.Warn("interaction edit failed", zap.Error(err))
	}
}

func descriptionEmbed(description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: description, Color: color}
}
