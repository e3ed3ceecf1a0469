// Package accounts resolves who logged in and which characters they can play.
package accounts

// GameCharacter is one playable character on the account, in the order the
// game-session service lists them.
type GameCharacter struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"` // empty until the character is named
	UserHash    string `json:"user_hash"`
	IsMembers   bool   `json:"is_members"`
}

// AccountInfo is the identity behind the id token plus the account API's display name.
type AccountInfo struct {
	Subject     string
	Nickname    string
	Email       *string // only present when the email scope was granted
	DisplayName string
	ID          string
	UserID      string
}

// Account is the result of a successful login, in the shape the UI consumes.
type Account struct {
	// Email carries the id token nickname, which is what the launcher shows as the login name.
	Email       string          `json:"email"`
	AccountName string          `json:"account_name"`
	Characters  []GameCharacter `json:"characters"`
}

// NewAccount assembles the Account for info and characters.
func NewAccount(info *AccountInfo, characters []GameCharacter) *Account {
	if characters == nil {
		characters = []GameCharacter{}
	}
	return &Account{
		Email:       info.Nickname,
		AccountName: info.DisplayName,
		Characters:  characters,
	}
}
