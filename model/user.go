package model

// Role distinguishes the two marketplace sides plus support staff.
type Role string

const (
	RoleBusiness Role = "business"
	RoleStudent  Role = "student"
	RoleAdmin    Role = "admin"
)

// User represents an account on either side of the marketplace.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}
