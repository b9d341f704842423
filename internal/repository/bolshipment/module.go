package bolshipment

import "go.uber.org/fx"

// Module provides the bolshipment repository to Fx.
var Module = fx.Provide(NewRepository)
