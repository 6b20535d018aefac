package server

const (
	RouteWebhookCall = "/webhooks/call"

	RouteOAuthAuthorize = "/oauth/authorize"
	RouteOAuthCallback  = "/oauth/callback"

	RouteHealthz = "/healthz"
)
