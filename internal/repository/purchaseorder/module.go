package purchaseorder

import "go.uber.org/fx"

// Module provides the purchaseorder repository to Fx.
var Module = fx.Provide(NewRepository)
