package web

import "embed"

// TemplatesFS holds the dashboard page and its htmx fragments.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the small client script.
//
//go:embed static/*
var StaticFS embed.FS
