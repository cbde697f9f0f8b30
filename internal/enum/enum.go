package enum

// ── Order lifecycle (CHECK constrained in DB) ──

// OrderStatusOpen exists in the schema and the status check constraint but
// no operation currently produces it: orders are created directly in
// PREPARING. Kept so the wire format stays stable if a draft state is ever
// added.
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusServed    = "SERVED"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleManager = "MANAGER"
	UserRoleServer  = "SERVER"
	UserRoleCook    = "COOK"
)

// ── Menu categories (CHECK constrained in DB) ──

const (
	CategoryStarter = "STARTER"
	CategoryMain    = "MAIN"
	CategoryDessert = "DESSERT"
	CategoryDrink   = "DRINK"
)
