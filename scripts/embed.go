// Package scripts embeds the stock Risor scripts shipped with the asg
// command. They run against a loaded graph through internal/runtime.
package scripts

import "embed"

// FS holds every .risor file of this directory.
//
//go:embed *.risor
var FS embed.FS
