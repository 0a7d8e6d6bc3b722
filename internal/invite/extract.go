// Package invite extracts Discord invite codes from message text.
package invite

import "regexp"

// codeRegex matches invite URLs with or without a scheme or subdomain, on
// either the discord.gg or discord(app).com/invite host form. The trailing
// path segment is the code. The host match is case-insensitive; the captured
// code keeps the case it was written with.
var codeRegex = regexp.MustCompile(`(?i)(?:https?://)?(?:\w+\.)?discord(?:(?:app)?\.com/invite|\.gg)/([a-z0-9-]+)`)

// ExtractCodes returns the set of distinct invite codes found in content.
func ExtractCodes(content string) map[string]struct{} {
	codes := make(map[string]struct{})
	for _, match := range codeRegex.FindAllStringSubmatch(content, -1) {
		codes[match[1]] = struct{}{}
	}
	return codes
}
