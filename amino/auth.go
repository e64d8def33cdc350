package amino

import (
	"context"
	"fmt"
	"time"
)

// loginPayload is the body of POST /g/s/auth/login.
type loginPayload struct {
	Email      string `json:"email"`
	Secret     string `json:"secret"`
	ClientType int    `json:"clientType"`
	Action     string `json:"action"`
	DeviceID   string `json:"deviceID"`
	V          int    `json:"v"`
	Timestamp  int64  `json:"timestamp"`
}

const clientTypeDefault = 100

// Login authenticates with email and password and stores the resulting
// session on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	return c.login(ctx, email, "0 "+password)
}

// LoginSecret authenticates with a stored login secret instead of a
// password.
func (c *Client) LoginSecret(ctx context.Context, secret string) (*LoginResult, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret is required")
	}
	return c.login(ctx, "", secret)
}

func (c *Client) login(ctx context.Context, email, secret string) (*LoginResult, error) {
	payload := loginPayload{
		Email:      email,
		Secret:     secret,
		ClientType: clientTypeDefault,
		Action:     "normal",
		DeviceID:   c.deviceID,
		V:          2,
		Timestamp:  time.Now().UnixMilli(),
	}

	var result LoginResult
	if err := c.post(ctx, "/g/s/auth/login", payload, &result); err != nil {
		return nil, err
	}

	c.SetSession(Session{
		SID:      result.SID,
		UserID:   result.UserID,
		Secret:   result.Secret,
		DeviceID: c.deviceID,
	})

	c.logger.Info("logged in", "uid", result.UserID)
	return &result, nil
}

// LoginSID resumes an existing session token and fetches the account it
// belongs to.
func (c *Client) LoginSID(ctx context.Context, sid string) (*Account, error) {
	if sid == "" {
		return nil, fmt.Errorf("sid is required")
	}

	c.SetSession(Session{SID: sid, DeviceID: c.deviceID})

	account, err := c.AccountInfo(ctx)
	if err != nil {
		c.clearSession()
		return nil, err
	}

	c.mu.Lock()
	c.session.UserID = account.UserID
	c.mu.Unlock()

	return account, nil
}

// Logout invalidates the session server-side and clears it locally.
func (c *Client) Logout(ctx context.Context) error {
	if !c.Session().Valid() {
		return ErrNoSession
	}

	payload := map[string]any{
		"deviceID":   c.deviceID,
		"clientType": clientTypeDefault,
		"timestamp":  time.Now().UnixMilli(),
	}

	if err := c.post(ctx, "/g/s/auth/logout", payload, nil); err != nil {
		return err
	}

	c.clearSession()
	c.logger.Info("logged out")
	return nil
}

// AccountInfo fetches the global account record for the current session.
func (c *Client) AccountInfo(ctx context.Context) (*Account, error) {
	if !c.Session().Valid() {
		return nil, ErrNoSession
	}

	var env accountEnvelope
	if err := c.get(ctx, "/g/s/account", &env); err != nil {
		return nil, err
	}
	return &env.Account, nil
}

// CheckDevice verifies a device ID with the service.
func (c *Client) CheckDevice(ctx context.Context, deviceID string) error {
	payload := map[string]any{
		"deviceID":   deviceID,
		"clientType": clientTypeDefault,
		"timestamp":  time.Now().UnixMilli(),
	}
	return c.post(ctx, "/g/s/device/", payload, nil)
}

// RequestVerifyCode asks the service to email a verification code.
func (c *Client) RequestVerifyCode(ctx context.Context, email string) error {
	payload := map[string]any{
		"identity":  email,
		"type":      1,
		"deviceID":  c.deviceID,
		"timestamp": time.Now().UnixMilli(),
	}
	return c.post(ctx, "/g/s/auth/request-security-validation", payload, nil)
}

// VerifyAccount submits an emailed verification code.
func (c *Client) VerifyAccount(ctx context.Context, email, code string) error {
	payload := map[string]any{
		"type":     1,
		"identity": email,
		"data":     map[string]string{"code": code},
		"deviceID": c.deviceID,
	}
	return c.post(ctx, "/g/s/auth/activate-email", payload, nil)
}
