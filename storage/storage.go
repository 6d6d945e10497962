package storage

import (
	"ticket-bot/config"
)

// Cfg is the loaded bot configuration, set once at startup before any
// handler runs.
var Cfg *config.Config
