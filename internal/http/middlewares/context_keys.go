package middlewares

// gin context keys
const (
	CtxRequestID  = "request_id"
	CtxUserID     = "auth.userID"
	CtxAuthMethod = "auth.method"
	CtxAPIKeyID   = "auth.apiKeyID"
)
