package controller

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/apierr"
	"github.com/ndmitrenko/tribune/internal/client/api"
	"github.com/ndmitrenko/tribune/internal/client/session"
	"github.com/ndmitrenko/tribune/internal/models"
)

// Credentials is the login form.
type Credentials struct {
	Email    string
	Password string
}

// Validate applies the client-side login rules.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

// Registration is the account creation form.
type Registration struct {
	Email    string
	Password string
	FullName string
}

// Validate applies the client-side registration rules.
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&r.FullName, validation.Required),
	)
}

// AuthController runs the explicit login/register/logout flows. Together
// with the session store's rejection handling these are the only writers of
// the credential.
type AuthController struct {
	session *session.Store
	client  *api.Client
	nav     Navigator
	log     *zap.Logger
}

// NewAuth builds an auth controller.
func NewAuth(client *api.Client, sess *session.Store, nav Navigator, log *zap.Logger) *AuthController {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthController{session: sess, client: client, nav: nav, log: log}
}

// Login exchanges credentials for a token, persists it, and resolves the
// identity behind it so the session is immediately usable.
func (a *AuthController) Login(ctx context.Context, creds Credentials) (*models.Profile, error) {
	if err := creds.Validate(); err != nil {
		return nil, apierr.Wrap(apierr.KindValidation, err.Error(), err)
	}
	tok, err := a.client.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}
	if err := a.session.SetToken(tok); err != nil {
		return nil, err
	}
	p, err := a.session.ResolveIdentity(ctx, a.client)
	if err != nil {
		return nil, err
	}
	a.log.Info("logged in", zap.Int64("user_id", p.ID))
	return p, nil
}

// Register creates the account and then runs the normal login flow with the
// same credentials; the backend does not hand out a token on registration.
func (a *AuthController) Register(ctx context.Context, reg Registration) (*models.Profile, error) {
	if err := reg.Validate(); err != nil {
		return nil, apierr.Wrap(apierr.KindValidation, err.Error(), err)
	}
	if _, err := a.client.Register(ctx, reg.Email, reg.Password, reg.FullName); err != nil {
		return nil, err
	}
	return a.Login(ctx, Credentials{Email: reg.Email, Password: reg.Password})
}

// Logout destroys the session and routes to the login entry point.
func (a *AuthController) Logout() error {
	if err := a.session.Clear(); err != nil {
		return err
	}
	a.nav.ShowLogin()
	return nil
}
