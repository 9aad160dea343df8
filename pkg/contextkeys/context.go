package contextkeys

// Custom type to avoid collisions with other context keys.
type contextKey string

// DBContextKey is the key under which the request-scoped *gorm.DB
// (pool or transaction) is stored in the gin context.
const DBContextKey = contextKey("db")

// UserIDContextKey is the key under which the authenticated user id
// is stored after the auth middleware has run.
const UserIDContextKey = contextKey("userID")
