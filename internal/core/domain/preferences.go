package domain

// Preferences holds per-account settings, decoupled from credentials.
// At most one record exists per account; DefaultPreferences applies when
// none has been written yet.
type Preferences struct {
	AccountID          string `json:"account_id"`
	EmailNotifications bool   `json:"email_notifications"`
	Newsletter         bool   `json:"newsletter"`
	DarkMode           bool   `json:"dark_mode"`
	Language           string `json:"language"`
}

// DefaultPreferences returns the settings an account has before its first
// preference write.
func DefaultPreferences(accountID string) *Preferences {
	return &Preferences{
		AccountID:          accountID,
		EmailNotifications: true,
		Newsletter:         true,
		DarkMode:           false,
		Language:           "es",
	}
}
