// Package assets embeds static assets served by the databoard dashboard.
package assets

import _ "embed"

// PlaceholderSVG is shown in place of a missing reference image
//
//go:embed placeholder.svg
var PlaceholderSVG []byte
