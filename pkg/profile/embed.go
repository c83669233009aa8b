package profile

import "embed"

// builtinProfilesFS embeds the built-in profiles directory.
//
//go:embed profiles/*.yml
var builtinProfilesFS embed.FS
