// Package web embeds the control panel served at the root path.
package web

import "embed"

//go:embed templates/*.html
var TemplateFiles embed.FS
