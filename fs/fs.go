// Package appfs embeds the application's static files so binaries ship
// self-contained.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
