package api

// ErrorResponse is the standard error body: a short message plus optional
// detail safe to show a client.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the standard acknowledgement body for operations that
// return no resource.
type SuccessResponse struct {
	Message string `json:"message"`
}

// PortalSessionResponse returns the Stripe Customer Portal URL.
type PortalSessionResponse struct {
	URL string `json:"url"`
}

// GithubConnectResponse returns the OAuth consent URL to redirect the user to.
type GithubConnectResponse struct {
	AuthorizeURL string `json:"authorizeUrl"`
}
