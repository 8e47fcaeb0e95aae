package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	cookieName = "feeledger_session"
	tokenKey   = "token"
)

// CookieJar keeps the session token in a signed, HttpOnly cookie.
type CookieJar struct {
	store *sessions.CookieStore
}

// NewCookieJar creates a CookieJar signing with secret.
func NewCookieJar(secret []byte, ttl time.Duration, secure bool) *CookieJar {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	// Also bounds the age the codec accepts when decoding.
	store.MaxAge(int(ttl.Seconds()))
	return &CookieJar{store: store}
}

// Token returns the session token carried by the request, or "" when the
// cookie is absent or its signature does not verify.
func (j *CookieJar) Token(r *http.Request) string {
	sess, err := j.store.Get(r, cookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}

// Save writes the token cookie. The session object is shared for the whole
// request, so options changed by an earlier Clear are reset first.
func (j *CookieJar) Save(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := j.store.Get(r, cookieName)
	opts := *j.store.Options
	sess.Options = &opts
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// Clear expires the token cookie.
func (j *CookieJar) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := j.store.Get(r, cookieName)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
