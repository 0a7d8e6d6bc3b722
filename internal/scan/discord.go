package scan

import (
	"github.com/bwmarrin/discordgo"
)

// StateCache adapts the discordgo session state to the Cache interface.
type StateCache struct {
	session *discordgo.Session
}

func NewStateCache(session *discordgo.Session) *StateCache {
	return &StateCache{session: session}
}

func (c *StateCache) GuildChannels(guildID string) []*discordgo.Channel {
	guild, err := c.session.State.Guild(guildID)
	if err != nil {
		return nil
	}
	return guild.Channels
}

func (c *StateCache) Channel(channelID string) *discordgo.Channel {
	channel, err := c.session.State.Channel(channelID)
	if err != nil {
		return nil
	}
	return channel
}

func (c *StateCache) BotPermissions(channelID string) (int64, error) {
	return c.session.State.UserChannelPermissions(c.session.State.User.ID, channelID)
}

// CachedMessageSource is the cache-then-fetch read used for channel
// history: if the session state already holds at least the requested number
// of messages for the channel, the request is satisfied from the cache and
// no REST call is made; otherwise the most recent messages are fetched.
type CachedMessageSource struct {
	session *discordgo.Session
}

func NewCachedMessageSource(session *discordgo.Session) *CachedMessageSource {
	return &CachedMessageSource{session: session}
}

func (s *CachedMessageSource) RecentMessages(channelID string, limit int) ([]*discordgo.Message, error) {
	if channel, err := s.session.State.Channel(channelID); err == nil && len(channel.Messages) >= limit {
		// State keeps messages oldest first.
		return channel.Messages[len(channel.Messages)-limit:], nil
	}
	return s.session.ChannelMessages(channelID, limit, "", "", "")
}

// ChannelReporter posts report embeds through the session.
type ChannelReporter struct {
	session *discordgo.Session
}

func NewChannelReporter(session *discordgo.Session) *ChannelReporter {
	return &ChannelReporter{session: session}
}

func (r *ChannelReporter) Emit(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := r.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}
