// Package auth checks account credentials and guards mutating routes.
//
// Callers authenticate with HTTP Basic credentials or with a bearer token
// obtained from POST /api/auth/token. Reads are public; mutations go
// through RequireAdmin, which consults the account's admin flag on every
// request so revoking it takes effect immediately.
//
// # Configuration
//
//	AUTH_JWT_SECRET=<hex>            # Generated per process if empty
//	AUTH_TOKEN_EXPIRY=24h            # Bearer token lifetime
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_ADMIN_PASSWORD=<password>   # Password of account 1, applied at startup
//	AUTH_MAX_LOGIN_ATTEMPTS=5        # Failed checks before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	authService := auth.NewService(users.NewRepository(db), cfg.Auth)
//	mw := auth.NewMiddleware(authService, auth.NewTokenIssuer(secret, cfg.Auth.TokenExpiry), auth.NewRateLimiter(cfg.Auth))
//	router.Use(mw.Handler())
//	api.POST("/books", mw.RequireAdmin(), controller.Create)
package auth
