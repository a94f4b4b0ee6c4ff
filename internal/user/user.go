// Package user defines the user document persisted by the storage layer and
// the bounds on its embedded lists.
package user

import "time"

// MaxComparisonItems is the hard cap on the comparison list. Adds that would
// exceed it are rejected, never truncated.
const MaxComparisonItems = 5

// MaxHistoryEntries is the hard cap on the history list.
const MaxHistoryEntries = 20

// User is the single persisted entity: one self-contained document per user.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"id"`

	// UserName is unique across all users.
	UserName string `json:"userName"`

	// PasswordHash is the bcrypt hash of the most recently accepted password.
	// The file backend needs it serialized; handlers never expose this struct
	// directly, and the service getters blank it before returning.
	PasswordHash string `json:"passwordHash,omitempty"`

	Email       string `json:"email"`
	Nationality string `json:"nationality"`
	MainAirport string `json:"mainAirport"`

	PreferredCarriers  []string `json:"preferenceCarrier"`
	PreferredAlliances []string `json:"preferenceAlliance"`

	// ComparisonList holds ids of compared items with set semantics:
	// membership is unique and capped at MaxComparisonItems.
	ComparisonList []string `json:"comparisonList"`

	// History holds saved comparison snapshots, unique by entry ID and capped
	// at MaxHistoryEntries.
	History []HistoryEntry `json:"historyList"`
}

// HistoryEntry is one saved comparison result. Entry identity is the ID field.
type HistoryEntry struct {
	ID       string    `json:"id"`
	Airlines []string  `json:"airlines"`
	SavedAt  time.Time `json:"savedAt"`
}
