package auth

import (
	"context"

	"connectrpc.com/connect"
)

// LocalDevInterceptor injects a fixed user identity on every call so the
// backend can run locally without Firebase. The uid matches what the seed
// script impersonates, keeping seeded data and handler calls on one user.
func LocalDevInterceptor(uid string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if isPublicEndpoint(req.Spec().Procedure) {
				return next(ctx, req)
			}

			ctx = withUserClaims(ctx, &UserClaims{
				UID:         uid,
				Email:       uid + "@localhost",
				DisplayName: "Local Dev User",
				Verified:    true,
			})

			return next(ctx, req)
		}
	}
}
