// Package topology builds the ordered category/channel view a scan walks.
package topology

import (
	"sort"

	"github.com/bwmarrin/discordgo"
)

// Channel is a scannable text channel. LastMessageID is empty when the
// channel has no message history.
type Channel struct {
	ID            string
	Position      int
	LastMessageID string
}

// Category groups the member channels of one configured category.
type Category struct {
	ID       string
	Name     string
	Position int
	Channels []Channel
}

// Snapshot derives the scan order from a guild's cached channel list:
// configured categories sorted by display position, each holding its
// non-ignored text channels sorted the same way. Channels without history
// are kept; they report zero results later. The sorts are stable so equal
// positions keep the cache's order.
func Snapshot(channels []*discordgo.Channel, categoryIDs, ignored map[string]struct{}) []Category {
	var categories []Category
	members := make(map[string][]Channel)

	for _, channel := range channels {
		switch channel.Type {
		case discordgo.ChannelTypeGuildCategory:
			if _, ok := categoryIDs[channel.ID]; ok {
				categories = append(categories, Category{
					ID:       channel.ID,
					Name:     channel.Name,
					Position: channel.Position,
				})
			}
		case discordgo.ChannelTypeGuildText:
			if _, ok := categoryIDs[channel.ParentID]; !ok {
				continue
			}
			if _, ok := ignored[channel.ID]; ok {
				continue
			}
			members[channel.ParentID] = append(members[channel.ParentID], Channel{
				ID:            channel.ID,
				Position:      channel.Position,
				LastMessageID: channel.LastMessageID,
			})
		}
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Position < categories[j].Position
	})
	for i := range categories {
		children := members[categories[i].ID]
		sort.SliceStable(children, func(a, b int) bool {
			return children[a].Position < children[b].Position
		})
		categories[i].Channels = children
	}
	return categories
}
