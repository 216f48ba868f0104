package web

import "embed"

// StaticFS holds the embedded stylesheet for the moderation pages.
//
//go:embed static/*
var StaticFS embed.FS
