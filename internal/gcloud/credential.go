package gcloud

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultTokenURI is used when a stored credential does not name one.
const DefaultTokenURI = "https://oauth2.googleapis.com/token"

// ExternalError wraps a failure of gcloud itself or of gcloud's credential
// storage.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("gcloud %s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// Credential is the subset of a stored gcloud credential needed to prove it
// can still mint tokens.
type Credential struct {
	Account      string `json:"-"`
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri"`
}

// ErrNoRefreshToken is returned for credentials that cannot be checked by a
// refresh-token grant, such as service account keys.
var ErrNoRefreshToken = errors.New("credential has no refresh token")

// ParseCredential decodes a credentials.db value or an ADC file.
func ParseCredential(account string, data []byte) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing credential for %s: %w", account, err)
	}
	c.Account = account
	if c.TokenURI == "" {
		c.TokenURI = DefaultTokenURI
	}
	return &c, nil
}
