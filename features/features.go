// Package features embeds the booking scenarios shipped with bookbdd.
package features

import "embed"

// FS holds every *.feature file in this directory.
//
//go:embed *.feature
var FS embed.FS
