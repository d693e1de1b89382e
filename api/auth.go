package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"victoweb/domain"
	"victoweb/storage"
)

const (
	sessionCookieName = "session"
	contextUserKey    = "portal.user"
)

var errNoToken = errors.New("no session token")

// Auth issues and verifies signed session tokens and exposes the
// authorization middleware handlers hang off of.
type Auth struct {
	store  Storage
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

func NewAuth(store Storage, secret []byte, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Auth{
		store:  store,
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// IssueToken mints a session token for the given user.
func (a *Auth) IssueToken(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	})
	return token.SignedString(a.secret)
}

// UserIDFromToken verifies the token signature and expiry and returns the
// subject user id.
func (a *Auth) UserIDFromToken(raw string) (int64, error) {
	token, err := a.parser.Parse(raw, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid session claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.New("session token missing subject")
	}
	return int64(sub), nil
}

// tokenFromRequest pulls the session token from the Authorization header,
// the session cookie, or a token query parameter. The query form exists for
// EventSource clients, which cannot set headers.
func tokenFromRequest(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if raw, found := strings.CutPrefix(header, "Bearer "); found && raw != "" {
			return raw, nil
		}
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if raw := c.QueryParam("token"); raw != "" {
		return raw, nil
	}
	return "", errNoToken
}

func (a *Auth) resolveUser(c echo.Context) (domain.User, error) {
	if user, ok := c.Get(contextUserKey).(domain.User); ok {
		return user, nil
	}
	raw, err := tokenFromRequest(c)
	if err != nil {
		return domain.User{}, err
	}
	id, err := a.UserIDFromToken(raw)
	if err != nil {
		return domain.User{}, err
	}
	user, err := a.store.UserByID(c.Request().Context(), id)
	if err != nil {
		return domain.User{}, err
	}
	c.Set(contextUserKey, user)
	return user, nil
}

// currentUser returns the authenticated user for the request, if any.
func (a *Auth) currentUser(c echo.Context) (domain.User, bool) {
	user, err := a.resolveUser(c)
	if err != nil {
		return domain.User{}, false
	}
	return user, true
}

// RequireUser rejects unauthenticated requests and caches the resolved user
// on the request context for downstream handlers.
func (a *Auth) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := a.resolveUser(c); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

// RequireCapability authenticates the request and rejects users whose role
// does not grant the checked capability.
func (a *Auth) RequireCapability(check func(domain.Capabilities) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := a.resolveUser(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !check(domain.CapabilitiesFor(user)) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type sessionResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func signup(store Storage, auth *Auth) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req credentialsRequest
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		req.Username = strings.TrimSpace(strings.ToLower(req.Username))
		if req.Username == "" || len(req.Password) < 8 {
			return echo.NewHTTPError(http.StatusBadRequest, "username and a password of at least 8 characters are required")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to create account")
		}
		user, err := store.CreateUser(c.Request().Context(), domain.User{
			Username:     req.Username,
			FullName:     strings.TrimSpace(req.FullName),
			Phone:        strings.TrimSpace(req.Phone),
			PasswordHash: string(hash),
		})
		if errors.Is(err, storage.ErrUsernameTaken) {
			return echo.NewHTTPError(http.StatusConflict, "username is already taken")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to create account")
		}
		return issueSession(c, auth, user)
	}
}

func login(store Storage, auth *Auth) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req credentialsRequest
		if err := decodeBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		user, err := store.UserByUsername(c.Request().Context(), strings.TrimSpace(strings.ToLower(req.Username)))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return issueSession(c, auth, user)
	}
}

func logout() echo.HandlerFunc {
	return func(c echo.Context) error {
		c.SetCookie(&http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return c.NoContent(http.StatusNoContent)
	}
}

func issueSession(c echo.Context, auth *Auth, user domain.User) error {
	token, err := auth.IssueToken(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to start session")
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, sessionResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.DisplayName(),
		Role:     string(user.AdminRole),
	})
}
