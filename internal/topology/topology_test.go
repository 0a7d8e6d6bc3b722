package topology

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func category(id, name string, position int) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Name: name, Position: position, Type: discordgo.ChannelTypeGuildCategory}
}

func text(id, parentID string, position int, lastMessageID string) *discordgo.Channel {
	return &discordgo.Channel{
		ID:            id,
		ParentID:      parentID,
		Position:      position,
		LastMessageID: lastMessageID,
		Type:          discordgo.ChannelTypeGuildText,
	}
}

func TestSnapshotOrdering(t *testing.T) {
	channels := []*discordgo.Channel{
		category("cat3", "third", 3),
		category("cat1", "first", 1),
		category("cat2", "second", 2),
		text("ch5", "cat1", 5, "m1"),
		text("ch2", "cat1", 2, "m2"),
	}
	set := map[string]struct{}{"cat1": {}, "cat2": {}, "cat3": {}}

	snapshot := Snapshot(channels, set, nil)
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(snapshot))
	}
	if snapshot[0].ID != "cat1" || snapshot[1].ID != "cat2" || snapshot[2].ID != "cat3" {
		t.Fatalf("expected position order, got %v %v %v", snapshot[0].ID, snapshot[1].ID, snapshot[2].ID)
	}
	if len(snapshot[0].Channels) != 2 {
		t.Fatalf("expected 2 channels in cat1, got %d", len(snapshot[0].Channels))
	}
	if snapshot[0].Channels[0].ID != "ch2" || snapshot[0].Channels[1].ID != "ch5" {
		t.Fatalf("expected channel position order, got %v", snapshot[0].Channels)
	}
	if len(snapshot[1].Channels) != 0 {
		t.Fatalf("expected cat2 empty, got %v", snapshot[1].Channels)
	}
}

func TestSnapshotFiltering(t *testing.T) {
	channels := []*discordgo.Channel{
		category("cat1", "only", 1),
		category("unconfigured", "skip", 2),
		text("kept", "cat1", 1, "m1"),
		text("ignored", "cat1", 2, "m1"),
		text("orphan", "", 3, "m1"),
		text("elsewhere", "unconfigured", 4, "m1"),
		text("no-history", "cat1", 5, ""),
		{ID: "voice", ParentID: "cat1", Position: 6, Type: discordgo.ChannelTypeGuildVoice},
	}
	set := map[string]struct{}{"cat1": {}}
	ignored := map[string]struct{}{"ignored": {}}

	snapshot := Snapshot(channels, set, ignored)
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 category, got %d", len(snapshot))
	}
	got := snapshot[0].Channels
	if len(got) != 2 {
		t.Fatalf("expected kept and no-history, got %v", got)
	}
	if got[0].ID != "kept" || got[1].ID != "no-history" {
		t.Fatalf("unexpected channels: %v", got)
	}
	if got[1].LastMessageID != "" {
		t.Fatalf("expected empty history marker, got %q", got[1].LastMessageID)
	}
}
