package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func stateSession(t *testing.T, channelIDs ...string) *discordgo.Session {
	t.Helper()
	state := discordgo.NewState()
	if err := state.GuildAdd(&discordgo.Guild{ID: "guild"}); err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}
	for _, id := range channelIDs {
		channel := &discordgo.Channel{ID: id, GuildID: "guild", Type: discordgo.ChannelTypeGuildText}
		if err := state.ChannelAdd(channel); err != nil {
			t.Fatalf("ChannelAdd(%s): %v", id, err)
		}
	}
	return &discordgo.Session{State: state}
}

func TestChannelListMarksMissingChannels(t *testing.T) {
	session := stateSession(t, "100")

	got := channelList(session, []string{"100", "200"})
	want := "<#100>\n<#200> (no longer exists)"
	if got != want {
		t.Fatalf("channelList = %q, want %q", got, want)
	}

	if got := channelList(session, nil); got != "None" {
		t.Fatalf("channelList(nil) = %q, want None", got)
	}
}

func TestWithoutID(t *testing.T) {
	got := withoutID([]string{"1", "2", "3"}, "2")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("withoutID = %v", got)
	}

	got = withoutID([]string{"1"}, "9")
	if len(got) != 1 || got[0] != "1" {
		t.Fatalf("withoutID no-op = %v", got)
	}
}

func TestContainsID(t *testing.T) {
	ids := []string{"1", "2"}
	if !containsID(ids, "2") {
		t.Fatal("expected containsID to find 2")
	}
	if containsID(ids, "3") {
		t.Fatal("did not expect containsID to find 3")
	}
}
