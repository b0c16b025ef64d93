// Package ui embeds the static chat page served at the root path.
package ui

import _ "embed"

//go:embed index.html
var Index []byte
