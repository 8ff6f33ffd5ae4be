package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// It lives in its own package so config and utils can both read it.
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyToken         = ContextKey("Token")
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyUsername      = ContextKey("Username")
	ContextKeyUserRole      = ContextKey("UserRole")
	ContextKeyShopId        = ContextKey("ShopId")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeySkipShopScope disables automatic shop_id scoping for the request.
	// Internal tooling only.
	ContextKeySkipShopScope = ContextKey("SkipShopScope")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
