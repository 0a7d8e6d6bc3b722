package bot

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"invite-sentry/internal/invite"
	"invite-sentry/internal/storage"
	"invite-sentry/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	messageNoSettings = "No settings found for this server. Kick and reinvite the bot."
	messageInternal   = "Something went wrong. Try again later."
)

func (b *Bot) handleCheck(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	sc, rejection, err := b.runner.Prepare(ctx, interaction.GuildID, interaction.ChannelID)
	if err != nil {
		b.logger.Error("invite check prepare failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
		return
	}
	if rejection != nil {
		b.respondEmbed(session, interaction, descriptionEmbed(rejection.Message, storage.DefaultEmbedColor), true)
		return
	}

	b.respondEmbed(session, interaction, descriptionEmbed("Checking your invites now!", sc.Settings.EmbedColor), false)

	go func() {
		if err := b.runner.Execute(context.Background(), sc); err != nil {
			b.logger.Error("invite check failed", zap.String("guild_id", sc.Settings.GuildID), zap.Error(err))
		}
	}()
}

func (b *Bot) handleCategory(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	sub := interaction.ApplicationCommandData().Options[0]
	category := sub.Options[0].ChannelValue(session)

	settings, err := b.store.GetSettings(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Error("settings read failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
		return
	}
	if settings == nil {
		b.respondEmbed(session, interaction, descriptionEmbed(messageNoSettings, storage.DefaultEmbedColor), true)
		return
	}

	switch sub.Name {
	case "add":
		if containsID(settings.CategoryIDs, category.ID) {
			b.respondEmbed(session, interaction, descriptionEmbed("This category has already been added.", settings.EmbedColor), true)
			return
		}
		// Seeding can need several history fetches, so acknowledge first.
		if err := b.deferResponse(session, interaction); err != nil {
			b.logger.Warn("interaction defer failed", zap.Error(err))
			return
		}
		b.seedCategory(ctx, session, interaction.GuildID, category.ID)
		if err := b.store.SetCategoryIDs(ctx, interaction.GuildID, append(settings.CategoryIDs, category.ID)); err != nil {
			b.logger.Error("category add failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.editResponseEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor))
			return
		}
		b.editResponseEmbed(session, interaction,
			descriptionEmbed(fmt.Sprintf("<#%s> will now be checked during invite checks.", category.ID), settings.EmbedColor))
	case "remove":
		if !containsID(settings.CategoryIDs, category.ID) {
			b.respondEmbed(session, interaction, descriptionEmbed("This category is not in the check list.", settings.EmbedColor), true)
			return
		}
		if err := b.store.SetCategoryIDs(ctx, interaction.GuildID, withoutID(settings.CategoryIDs, category.ID)); err != nil {
			b.logger.Error("category remove failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
			return
		}
		b.respondEmbed(session, interaction,
			descriptionEmbed(fmt.Sprintf("<#%s> will no longer be checked during invite checks.", category.ID), settings.EmbedColor), false)
	}
}

// seedCategory pulls recent history from every readable text channel under
// the category so codes posted before the category was added still get
// checked. Fetch failures skip the channel; the next scan flags it for a
// manual look.
func (b *Bot) seedCategory(ctx context.Context, session *discordgo.Session, guildID, categoryID string) {
	guild, err := session.State.Guild(guildID)
	if err != nil {
		return
	}
	for _, channel := range guild.Channels {
		if channel.Type != discordgo.ChannelTypeGuildText || channel.ParentID != categoryID {
			continue
		}
		if channel.LastMessageID == "" {
			continue
		}
		messages, err := b.messages.RecentMessages(channel.ID, b.cfg.MessageFetchLimit)
		if err != nil {
			continue
		}
		codes := make(map[string]struct{})
		for _, message := range messages {
			for code := range invite.ExtractCodes(message.Content) {
				codes[code] = struct{}{}
			}
		}
		if len(codes) == 0 {
			continue
		}
		if err := b.store.CreateInvites(ctx, guildID, codes); err != nil {
			b.logger.Error("category seed failed",
				zap.String("guild_id", guildID),
				zap.String("channel_id", channel.ID),
				zap.Error(err))
		}
	}
}

func (b *Bot) handleIgnore(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	sub := interaction.ApplicationCommandData().Options[0]
	channel := sub.Options[0].ChannelValue(session)

	settings, err := b.store.GetSettings(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Error("settings read failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
		return
	}
	if settings == nil {
		b.respondEmbed(session, interaction, descriptionEmbed(messageNoSettings, storage.DefaultEmbedColor), true)
		return
	}

	switch sub.Name {
	case "add":
		if containsID(settings.IgnoredIDs, channel.ID) {
			b.respondEmbed(session, interaction, descriptionEmbed("This channel is already ignored.", settings.EmbedColor), true)
			return
		}
		if err := b.store.SetIgnoredIDs(ctx, interaction.GuildID, append(settings.IgnoredIDs, channel.ID)); err != nil {
			b.logger.Error("ignore add failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
			return
		}
		b.respondEmbed(session, interaction,
			descriptionEmbed(fmt.Sprintf("<#%s> will now be ignored during invite checks.", channel.ID), settings.EmbedColor), false)
	case "remove":
		if !containsID(settings.IgnoredIDs, channel.ID) {
			b.respondEmbed(session, interaction, descriptionEmbed("This channel is not ignored.", settings.EmbedColor), true)
			return
		}
		if err := b.store.SetIgnoredIDs(ctx, interaction.GuildID, withoutID(settings.IgnoredIDs, channel.ID)); err != nil {
			b.logger.Error("ignore remove failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
			return
		}
		b.respondEmbed(session, interaction,
			descriptionEmbed(fmt.Sprintf("<#%s> will no longer be ignored during invite checks.", channel.ID), settings.EmbedColor), false)
	}
}

func (b *Bot) handleSet(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	sub := interaction.ApplicationCommandData().Options[0]

	settings, err := b.store.GetSettings(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Error("settings read failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
		return
	}
	if settings == nil {
		b.respondEmbed(session, interaction, descriptionEmbed(messageNoSettings, storage.DefaultEmbedColor), true)
		return
	}

	switch sub.Name {
	case "results-channel":
		if len(sub.Options) == 0 {
			if err := b.store.SetResultsChannel(ctx, interaction.GuildID, ""); err != nil {
				b.logger.Error("results channel clear failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
				b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
				return
			}
			b.respondEmbed(session, interaction,
				descriptionEmbed("This server no longer has a results channel.", settings.EmbedColor), false)
			return
		}
		channel := sub.Options[0].ChannelValue(session)
		if err := b.store.SetResultsChannel(ctx, interaction.GuildID, channel.ID); err != nil {
			b.logger.Error("results channel set failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
			return
		}
		b.respondEmbed(session, interaction,
			descriptionEmbed(fmt.Sprintf("Invite check results will now be sent in <#%s>.", channel.ID), settings.EmbedColor), false)
	case "embed-color":
		color, ok := utils.ParseHexColor(sub.Options[0].StringValue())
		if !ok {
			b.respondEmbed(session, interaction, descriptionEmbed("No valid color provided.", settings.EmbedColor), true)
			return
		}
		if err := b.store.SetEmbedColor(ctx, interaction.GuildID, color); err != nil {
			b.logger.Error("embed color set failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
			return
		}
		b.respondEmbed(session, interaction,
			descriptionEmbed(fmt.Sprintf("The embed color for invite check embeds is now **#%06X**.", color), color), false)
	}
}

func (b *Bot) handleSettings(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	settings, err := b.store.GetSettings(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Error("settings read failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, descriptionEmbed(messageInternal, storage.DefaultEmbedColor), true)
		return
	}
	if settings == nil {
		b.respondEmbed(session, interaction, descriptionEmbed(messageNoSettings, storage.DefaultEmbedColor), true)
		return
	}

	resultsChannel := "None"
	if settings.ResultsChannelID != "" {
		resultsChannel = channelMention(session, settings.ResultsChannelID)
	}

	embed := &discordgo.MessageEmbed{
		Title: "Settings",
		Color: settings.EmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Categories", Value: channelList(session, settings.CategoryIDs)},
			{Name: "Embed color", Value: fmt.Sprintf("#%06X", settings.EmbedColor), Inline: true},
			{Name: "Ignored", Value: channelList(session, settings.IgnoredIDs)},
			{Name: "Results channel", Value: resultsChannel, Inline: true},
		},
	}
	b.respondEmbed(session, interaction, embed, true)
}

func (b *Bot) handleStats(_ context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := utils.Humanize(time.Since(b.started), false)
	if uptime == "" {
		uptime = "0s"
	}

	embed := &discordgo.MessageEmbed{
		Title: "Stats",
		Color: storage.DefaultEmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Servers", Value: utils.AddCommas(int64(len(session.State.Guilds))), Inline: true},
			{Name: "Memory", Value: fmt.Sprintf("%.1f MiB", float64(mem.HeapAlloc)/1024/1024), Inline: true},
			{Name: "Uptime", Value: uptime, Inline: true},
		},
	}
	b.respondEmbed(session, interaction, embed, true)
}

func (b *Bot) handlePing(_ context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	latency := session.HeartbeatLatency().Milliseconds()
	b.respondEmbed(session, interaction,
		descriptionEmbed(fmt.Sprintf("🏓 Pong! Heartbeat latency is **%d ms**.", latency), storage.DefaultEmbedColor), true)
}

// channelList renders channel mentions one per line, flagging ids the cache
// no longer knows about.
func channelList(session *discordgo.Session, ids []string) string {
	if len(ids) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, channelMention(session, id))
	}
	return strings.Join(lines, "\n")
}

func channelMention(session *discordgo.Session, id string) string {
	if _, err := session.State.Channel(id); err != nil {
		return fmt.Sprintf("<#%s> (no longer exists)", id)
	}
	return fmt.Sprintf("<#%s>", id)
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func withoutID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
