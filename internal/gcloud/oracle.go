package gcloud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"

	"github.com/tjirsch/gcloud-switch/internal/profile"
)

// Oracle answers whether gcloud holds a usable credential for an account.
// It only ever reads credentials.db.
type Oracle struct {
	// DBPath is gcloud's credentials.db.
	DBPath string
	// HTTPClient is used for the refresh check. nil means http.DefaultClient.
	HTTPClient *http.Client
}

// NewOracle returns an oracle over the given credentials.db path.
func NewOracle(dbPath string) *Oracle {
	return &Oracle{DBPath: dbPath}
}

func (o *Oracle) open() (*sql.DB, error) {
	if _, err := os.Stat(o.DBPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", "file:"+o.DBPath+"?mode=ro")
	if err != nil {
		return nil, &ExternalError{Op: "open credentials.db", Err: err}
	}
	return db, nil
}

// Lookup returns the stored credential for account. It returns an error
// wrapping profile.ErrNotFound when gcloud has no credential for it.
func (o *Oracle) Lookup(ctx context.Context, account string) (*Credential, error) {
	db, err := o.open()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("credentials for %s: %w", account, profile.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM credentials WHERE account_id = ?", account).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credentials for %s: %w", account, profile.ErrNotFound)
	}
	if err != nil {
		return nil, &ExternalError{Op: "query credentials.db", Err: err}
	}
	return ParseCredential(account, []byte(value))
}

// Accounts lists every account with a stored credential.
func (o *Oracle) Accounts(ctx context.Context) ([]string, error) {
	db, err := o.open()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT account_id FROM credentials ORDER BY account_id")
	if err != nil {
		return nil, &ExternalError{Op: "query credentials.db", Err: err}
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, &ExternalError{Op: "scan credentials.db", Err: err}
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CheckLiveness exchanges the credential's refresh token for an access token.
// Any failure, including a credential without a refresh token, is an error.
func (o *Oracle) CheckLiveness(ctx context.Context, c *Credential) error {
	if c == nil || c.RefreshToken == "" {
		return ErrNoRefreshToken
	}
	if o.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.HTTPClient)
	}
	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.TokenURI,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if _, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}).Token(); err != nil {
		return fmt.Errorf("refreshing token for %s: %w", c.Account, err)
	}
	return nil
}
