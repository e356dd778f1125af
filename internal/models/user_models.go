package models

import "time"

// User roles.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
	RoleChef    = "chef"
	RoleWaiter  = "waiter"
)

// User is a staff identity. It exists so every lifecycle, inventory and
// ledger write carries an explicit, authenticated actor; user administration
// itself is handled elsewhere.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	PinHash   string    `json:"-"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
