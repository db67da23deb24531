package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/solecart/pkg/config"
	"github.com/angelmondragon/solecart/pkg/credentials"
	"github.com/angelmondragon/solecart/pkg/logger"
)

// Credentials verifies the bearer token, attaches the credential and derives
// the session key. It never rejects: the cart handlers decide whether a
// missing or expired credential blocks the operation. A token that fails
// verification is ignored.
func Credentials(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := DeviceSessionKey(r.Header.Get(SessionKeyHeader))

			if token := bearerToken(r.Header.Get("Authorization")); token != "" {
				cred, err := credentials.Parse(cfg, token)
				switch {
				case err != nil:
					if logg != nil {
						logg.Warn(logg.WithField(ctx, "reason", err.Error()), "credential.unreadable")
					}
				default:
					ctx = credentials.WithCredential(ctx, cred)
					key = UserSessionKey(cred.Subject)
					if logg != nil {
						ctx = logg.WithField(ctx, "subject", cred.Subject)
					}
				}
			}

			if key != "" {
				ctx = WithSessionKey(ctx, key)
				if logg != nil {
					ctx = logg.WithSession(ctx, key)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
