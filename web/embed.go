// Package web holds the planner's page templates and browser assets.
package web

import "embed"

// TemplatesFS holds the page templates; layout.html defines the shared
// header and footer blocks.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS is served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
