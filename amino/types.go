package amino

import "encoding/json"

// LoginResult is the response to a successful login.
type LoginResult struct {
	SID     string          `json:"sid"`
	UserID  string          `json:"auid"`
	Secret  string          `json:"secret"`
	Account Account         `json:"account"`
	Profile json.RawMessage `json:"userProfile"`
}

// Account is the global account record.
type Account struct {
	UserID          string `json:"uid"`
	Nickname        string `json:"nickname"`
	Email           string `json:"email"`
	AminoID         string `json:"aminoId"`
	Icon            string `json:"icon"`
	Status          int    `json:"status"`
	Role            int    `json:"role"`
	MembershipSt    int    `json:"membershipStatus"`
	CreatedTime     string `json:"createdTime"`
	ModifiedTime    string `json:"modifiedTime"`
	Activation      int    `json:"activation"`
	EmailActivation int    `json:"emailActivation"`
}

// accountEnvelope wraps GET /g/s/account.
type accountEnvelope struct {
	Account Account `json:"account"`
}
