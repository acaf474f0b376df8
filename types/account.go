package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Account represents a student or staff member who signs in to the app.
// It carries identity, profile, and lockout state.
type Account struct {
	// ID is the store-assigned primary key.
	ID string `json:"_id"`

	Name  string `json:"name"`
	Email string `json:"email"`

	// PasswordHash stores the bcrypt hash of the account password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-"`

	// StudentNumber is the externally issued identifier. It is unique.
	StudentNumber string `json:"studentNumber"`

	Year          string `json:"year"`
	Qualification string `json:"qualification"`
	Department    string `json:"department"`
	UserType      string `json:"userType"`

	IsVerified           bool `json:"isVerified"`
	HasCompletedTutorial bool `json:"hasCompletedTutorial"`

	// LoginAttempts counts consecutive failed verifications since the
	// last success or unlock.
	LoginAttempts int `json:"loginAttempts"`

	// AccountLocked is true while a lockout is in effect.
	AccountLocked bool `json:"accountLocked"`

	// LockUntil is when the current lockout expires.
	LockUntil *time.Time `json:"lockUntil"`

	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// LockedAt reports whether the account is locked at instant now. A lock
// whose expiry is absent or not in the future is stale.
func (a Account) LockedAt(now time.Time) bool {
	return a.AccountLocked && a.LockUntil != nil && a.LockUntil.After(now)
}

// FlexString accepts either a JSON string or a JSON number. Mobile clients
// send year and student number both ways.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
