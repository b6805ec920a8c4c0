package http

const (
	AuthorizationKey    = "Authorization"
	ContentType         = "Content-Type"
	ApplicationJSONType = "application/json"
)

type key string

const (
	userIDKey key = "userIDKey"
)
