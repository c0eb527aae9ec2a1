package qaboard

import "embed"

// EmbeddedAssets contains the static assets shipped with the board:
// styles.css and board.js, the live client of the JSON API and websocket.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
