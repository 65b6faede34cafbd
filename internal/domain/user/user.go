package user

import "time"

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
	RoleBarber   = "BARBER"
)

type FullName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type User struct {
	ID       string   `json:"id"`
	FullName FullName `json:"fullName"`
	Email    string   `json:"email"`
	// never expose the hashes in JSON
	PasswordHash     string    `json:"-"`
	RefreshTokenHash string    `json:"-"`
	Role             string    `json:"role"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleAdmin, RoleBarber:
		return true
	}
	return false
}
