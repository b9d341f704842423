package bol

import "go.uber.org/fx"

// Module provides the BOL entry service to Fx.
var Module = fx.Provide(NewService)
