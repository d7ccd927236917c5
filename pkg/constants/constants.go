package constants

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
)

// gin context key
const (
	ContextKeySubscriber = "subscriber"
	ContextKeyHelmUser   = "helm_user"
)
