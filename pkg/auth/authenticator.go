package auth

type authenticator struct {
	authorizedTokens []string
}

// NewAuthenticator builds an allow-list authenticator over opaque bearer
// tokens. An empty list authorizes nobody.
func NewAuthenticator(authorizedTokens []string) *authenticator {
	return &authenticator{
		authorizedTokens: authorizedTokens,
	}
}

func (a *authenticator) IsAuthorized(token string) bool {
	if token == "" {
		return false
	}
	for _, t := range a.authorizedTokens {
		if token == t {
			return true
		}
	}
	return false
}
