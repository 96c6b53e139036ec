package domain

type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleOwner    UserRole = "OWNER"
	UserRoleAdmin    UserRole = "ADMIN"
)

// User is the slice of the identity service's user record the booking engine reads.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	IsBlocked bool     `json:"is_blocked"`
	IsDeleted bool     `json:"is_deleted"`
}

// CanBook reports whether the user may create reservations.
func (u *User) CanBook() bool {
	return !u.IsBlocked && !u.IsDeleted
}
