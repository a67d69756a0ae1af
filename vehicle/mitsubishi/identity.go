package mitsubishi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/evcc-io/ownerportal/util"
	"github.com/evcc-io/ownerportal/util/oauth"
	"github.com/evcc-io/ownerportal/util/request"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPI is the owner portal api base
	DefaultAPI = "https://connect.mitsubishi-motors.co.jp/"

	// AccessTokenLifetime is the age after which the access token is refreshed
	AccessTokenLifetime = 1500 * time.Second

	// RefreshTokenLifetime is the age after which a full login is required (~30 days)
	RefreshTokenLifetime = 2590000 * time.Second
)

// ErrLoginFailed indicates that the portal rejected the user credentials
var ErrLoginFailed = errors.New("login failed")

// Identity handles login and token refresh for an owner portal account
type Identity struct {
	*request.Helper
	log      *util.Logger
	clock    clock.Clock
	baseURI  string
	user     string
	password string
	store    Store

	mu    sync.Mutex
	creds Credentials
}

// NewIdentity creates a portal identity. Previously persisted credentials are restored from store.
func NewIdentity(log *util.Logger, baseURI, user, password string, store Store) *Identity {
	if baseURI == "" {
		baseURI = DefaultAPI
	}

	v := &Identity{
		Helper:   request.NewHelper(log),
		log:      log,
		clock:    clock.New(),
		baseURI:  baseURI,
		user:     user,
		password: password,
		store:    store,
	}

	if store != nil {
		if creds, err := store.Load(); err == nil {
			v.creds = creds
			log.Redact(creds.AccessToken, creds.RefreshToken)
		}
	}

	return v
}

// URL returns the absolute url for the given api path
func (v *Identity) URL(api string) string {
	if strings.HasPrefix(api, "https:") || strings.HasPrefix(api, "http:") {
		return api
	}

	return strings.TrimRight(v.baseURI, "/") + "/" + strings.TrimLeft(api, "/")
}

// UID returns the account id
func (v *Identity) UID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.creds.UID
}

// Credentials returns a copy of the current session state
func (v *Identity) Credentials() Credentials {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.creds
}

func (v *Identity) tokenRequest(data map[string]string) (TokenResponse, error) {
	var res TokenResponse

	req, err := request.New(http.MethodPost, v.URL("auth/v1/token"), request.MarshalJSON(data), request.JSONEncoding)
	if err == nil {
		err = v.DoJSON(req, &res)
	}

	return res, err
}

// Login performs a password login
func (v *Identity) Login() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.login()
}

func (v *Identity) login() error {
	res, err := v.tokenRequest(map[string]string{
		"grant_type": "password",
		"username":   v.user,
		"password":   v.password,
	})

	if err == nil && res.AccountDN == "" {
		err = errors.New("missing account")
		if res.Message != "" {
			err = errors.New(res.Message)
		}
	}

	if err != nil {
		v.log.ERROR.Printf("login %s failed: %v", v.user, err)
		if errors.Is(err, request.ErrCertificate) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	v.redact(res.AccessToken, res.RefreshToken)

	now := v.clock.Now()
	v.creds = Credentials{
		UID:              res.AccountDN,
		AccessToken:      res.AccessToken,
		TokenTime:        now,
		RefreshToken:     res.RefreshToken,
		RefreshTokenTime: now,
	}

	v.log.INFO.Println("login successful")
	v.persist()

	return nil
}

// CheckToken logs in or refreshes the access token depending on the credential age
func (v *Identity) CheckToken() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checkToken()
}

func (v *Identity) checkToken() error {
	now := v.clock.Now()

	var tokenAge, refreshAge time.Duration
	if !v.creds.TokenTime.IsZero() {
		tokenAge = now.Sub(v.creds.TokenTime)
	}
	if !v.creds.RefreshTokenTime.IsZero() {
		refreshAge = now.Sub(v.creds.RefreshTokenTime)
	}

	v.log.DEBUG.Printf("token check: token age %v, refresh age %v, uid %s", tokenAge.Round(time.Second), refreshAge.Round(time.Second), v.creds.UID)

	switch {
	case v.creds.missing():
		v.log.INFO.Println("missing credentials, performing login")
		return v.login()

	case refreshAge > RefreshTokenLifetime:
		v.log.INFO.Printf("refresh token expired (age: %d days), performing login", int(refreshAge.Hours()/24))
		return v.login()

	case tokenAge > AccessTokenLifetime:
		v.log.DEBUG.Printf("access token expired (age: %d minutes), refreshing", int(tokenAge.Minutes()))
		return v.refreshToken()
	}

	return nil
}

// RefreshToken refreshes the access token and falls back to login if that fails
func (v *Identity) RefreshToken() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshToken()
}

func (v *Identity) refreshToken() error {
	res, err := v.tokenRequest(map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": v.creds.RefreshToken,
	})

	if err == nil && res.AccessToken == "" {
		err = errors.New("missing access token")
	}

	if err != nil {
		v.log.WARN.Printf("token refresh failed: %v", err)
		return v.login()
	}

	if res.RefreshToken == "" {
		res.RefreshToken = v.creds.RefreshToken
	}
	v.redact(res.AccessToken, res.RefreshToken)

	v.creds.AccessToken = res.AccessToken
	v.creds.TokenTime = v.clock.Now()
	v.creds.RefreshToken = res.RefreshToken

	v.log.DEBUG.Println("access token refreshed")
	v.persist()

	return nil
}

// redact swaps the current tokens for their successors in the log redaction
func (v *Identity) redact(accessToken, refreshToken string) {
	v.log.Replace(v.creds.AccessToken, accessToken)
	v.log.Replace(v.creds.RefreshToken, refreshToken)
}

func (v *Identity) persist() {
	if v.store == nil {
		return
	}

	if err := v.store.Save(v.creds); err != nil {
		v.log.WARN.Printf("cannot persist credentials: %v", err)
	}
}

var _ oauth2.TokenSource = (*Identity)(nil)

// Token implements oauth2.TokenSource
func (v *Identity) Token() (*oauth2.Token, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkToken(); err != nil {
		return nil, err
	}

	token := oauth.Token{
		AccessToken: v.creds.AccessToken,
		Expiry:      v.creds.TokenTime.Add(AccessTokenLifetime),
	}

	return token.Bearer(), nil
}
