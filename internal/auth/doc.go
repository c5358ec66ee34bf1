// Package auth is the authentication and authorization boundary of the API.
//
// It owns password hashing, bearer token issuance and verification, the gin
// middleware that guards protected routes, and the register/login endpoints.
//
// # Tokens
//
// Tokens are HS256 JWTs carrying the account id and role:
//
//	tokens, err := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenExpiry)
//	token, err := tokens.Issue(account.ID, account.Role)
//	claims, err := tokens.Verify(token)
//
// There is no server-side revocation. A token stays valid until it expires or
// its account disappears; logging out means discarding the token on the client.
//
// # Guarding routes
//
//	gate := auth.NewGate(tokens, accountsRepo, log, m)
//	admin := router.Group("/api/users", gate.Protect(), gate.RequireRole(entities.RoleAdmin))
//
// Handlers behind Protect read the caller with auth.CurrentAccount(c). They
// must not inspect the Authorization header themselves.
//
// # Login throttling
//
// Failed logins are counted per client IP and email. RateLimiter keeps the
// counters in memory; RedisRateLimiter shares them between replicas.
package auth
