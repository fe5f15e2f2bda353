package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const actingUserKey contextKey = iota

// getActingUser extracts the acting user ID from context. Zero means logged
// out.
func getActingUser(ctx context.Context) int64 {
	v, _ := ctx.Value(actingUserKey).(int64)
	return v
}

// actingUserMiddleware stamps each request with the user it runs as. The
// identity is process-wide, so a switch_user call only affects later
// requests.
func actingUserMiddleware(ident IdentityService) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if ident != nil {
				ctx = context.WithValue(ctx, actingUserKey, ident.UserID())
			}
			return next(ctx, method, req)
		}
	}
}
