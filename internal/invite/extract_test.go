package invite

import "testing"

func TestExtractCodes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"plain url", "join https://discord.gg/abc123", []string{"abc123"}},
		{"no scheme", "discord.gg/abc123", []string{"abc123"}},
		{"invite path", "https://discord.com/invite/abc123", []string{"abc123"}},
		{"app host", "https://discordapp.com/invite/abc123", []string{"abc123"}},
		{"subdomain", "https://www.discord.gg/abc123", []string{"abc123"}},
		{"mixed case host", "DISCORD.COM/invite/abc123", []string{"abc123"}},
		{"hyphenated code", "discord.gg/my-server", []string{"my-server"}},
		{"no invites", "nothing to see here https://example.com/x", nil},
		{
			"case of code preserved",
			"join https://discord.gg/AbC123 now, also DISCORD.COM/invite/abc123",
			[]string{"AbC123", "abc123"},
		},
		{
			"duplicates collapse",
			"discord.gg/same and again discord.gg/same",
			[]string{"same"},
		},
		{
			"multiple codes",
			"discord.gg/one then https://discord.com/invite/two",
			[]string{"one", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCodes(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d codes, got %d: %v", len(tt.want), len(got), got)
			}
			for _, code := range tt.want {
				if _, ok := got[code]; !ok {
					t.Fatalf("expected code %q in %v", code, got)
				}
			}
		})
	}
}

func TestExtractCodesDeterministic(t *testing.T) {
	content := "discord.gg/a discord.gg/b discord.gg/a"
	first := ExtractCodes(content)
	second := ExtractCodes(content)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 codes on both runs, got %v and %v", first, second)
	}
}
