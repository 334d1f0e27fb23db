// Package scripts embeds the scripted rules shipped with lintel.
package scripts

import "embed"

// FS holds rules/manifest.yaml and the Risor scripts it names.
//
//go:embed rules
var FS embed.FS
