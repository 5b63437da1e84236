package models

import "github.com/shopspring/decimal"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a record from the user directory collection. ManualAdjustment is
// the administrator-set signed balance offset; it defaults to zero.
type User struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Role             string          `json:"role"`
	PasswordHash     string          `json:"-"`
	ManualAdjustment decimal.Decimal `json:"manualAdjustment"`
	CreatedAtMillis  int64           `json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
