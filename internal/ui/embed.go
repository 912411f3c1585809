package ui

import "embed"

// Dist embeds the dashboard page and its static assets from dist/.
// index.html talks to /dashboard/api and redirects to /login when the
// session is missing.
//
//go:embed all:dist
var Dist embed.FS
