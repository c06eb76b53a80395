package sdk

import "net/http"

// HeaderAdminToken is the header carrying the admin token, matching the server.
const HeaderAdminToken = "X-Converge-Admin-Token"

// AuthType represents the type of authentication to use for a request.
type AuthType int

const (
	// AuthTypeNone indicates no authentication headers should be added.
	AuthTypeNone AuthType = iota

	// AuthTypeAdmin indicates admin token authentication should be used.
	AuthTypeAdmin
)

// addAuthHeaders adds the authentication headers for authType to the request.
// Returns ErrMissingAuth if the required credentials are not available.
func (c *Client) addAuthHeaders(req *http.Request, authType AuthType) error {
	switch authType {
	case AuthTypeAdmin:
		if c.AdminToken == "" {
			return ErrMissingAuth
		}
		req.Header.Set(HeaderAdminToken, c.AdminToken)
	case AuthTypeNone:
	}

	return nil
}
