package scan

import (
	"fmt"
	"strings"
	"time"

	"invite-sentry/internal/storage"
	"invite-sentry/internal/utils"

	"github.com/bwmarrin/discordgo"
)

// ChannelResult is one scanned channel's tally.
type ChannelResult struct {
	ChannelID string
	Good      int
	Bad       int
}

func (c ChannelResult) line() string {
	emoji, suffix := "\U0001F7E2", "" // green circle
	if c.Bad > 0 {
		emoji = "\U0001F534" // red circle
		suffix = fmt.Sprintf(" (**%d** bad)", c.Bad)
	}
	return fmt.Sprintf("%s <#%s> - **%d** total%s", emoji, c.ChannelID, c.Good+c.Bad, suffix)
}

// CategoryResult collects one category's channel outcomes. Issues counts
// channels that vanished from the cache mid-scan; Manual lists channels the
// bot could not read.
type CategoryResult struct {
	Name     string
	Channels []ChannelResult
	Issues   int
	Manual   []string
}

// Embed renders the category report. fetchLimit is the message window shown
// in the footer; zero channels mean nothing was fetched.
func (c *CategoryResult) Embed(color, fetchLimit int, now time.Time) *discordgo.MessageEmbed {
	description := "No channels to check in this category."
	checked := 0
	if len(c.Channels) > 0 {
		lines := make([]string, 0, len(c.Channels))
		for _, channel := range c.Channels {
			lines = append(lines, channel.line())
		}
		description = strings.Join(lines, "\n")
		checked = fetchLimit
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("The %q category", c.Name),
		Description: description,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Checked %d messages", checked)},
		Timestamp:   now.Format(time.RFC3339),
	}
	if c.Issues > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Issues",
			Value: fmt.Sprintf("- %d channel(s) could not be checked", c.Issues),
		})
	}
	if len(c.Manual) > 0 {
		mentions := make([]string, 0, len(c.Manual))
		for _, channelID := range c.Manual {
			mentions = append(mentions, "- <#"+channelID+">")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Manual check(s) required",
			Value: strings.Join(mentions, "\n"),
		})
	}
	return embed
}

// Report accumulates a whole scan's results.
type Report struct {
	Started    time.Time
	Categories []*CategoryResult
}

// Totals sums the report. TotalChannels includes issue and manual-review
// entries; TotalInvites is clamped to at least 1 so percentage math never
// divides by zero.
func (r *Report) Totals() (totalChannels, totalInvites, good, bad int) {
	for _, category := range r.Categories {
		totalChannels += len(category.Channels) + category.Issues + len(category.Manual)
		for _, channel := range category.Channels {
			good += channel.Good
			bad += channel.Bad
		}
	}
	totalInvites = good + bad
	if totalInvites < 1 {
		totalInvites = 1
	}
	return totalChannels, totalInvites, good, bad
}

// SummaryEmbed renders the final report posted after every category.
func (r *Report) SummaryEmbed(color int, now time.Time) *discordgo.MessageEmbed {
	totalChannels, totalInvites, good, bad := r.Totals()
	stats := strings.Join([]string{
		fmt.Sprintf("- **%s** channel(s) checked", utils.AddCommas(int64(totalChannels))),
		fmt.Sprintf("- **%s** invite(s) checked", utils.AddCommas(int64(totalInvites))),
		fmt.Sprintf("- **%d** (%.2f%%) invalid invite(s)", bad, float64(bad*100)/float64(totalInvites)),
		fmt.Sprintf("- **%d** (%.2f%%) valid invite(s)", good, float64(good*100)/float64(totalInvites)),
	}, "\n")

	return &discordgo.MessageEmbed{
		Title: "Invite check results",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Elapsed time", Value: utils.Humanize(now.Sub(r.Started), true)},
			{Name: "Stats", Value: stats},
		},
		Timestamp: now.Format(time.RFC3339),
	}
}

// Classify reports whether a checked record still counts as a good invite:
// valid, and either permanent or not yet expired.
func Classify(record storage.InviteRecord, now time.Time) bool {
	if record.Valid == nil || !*record.Valid {
		return false
	}
	if record.Permanent != nil && *record.Permanent {
		return true
	}
	if record.ExpiresAt == nil {
		return true
	}
	return record.ExpiresAt.After(now)
}
