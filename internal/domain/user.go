package domain

type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// User identifies an actor on an order. Authentication happens
// upstream; the engine only checks relationships (buyer, seller, admin).
type User struct {
	ID   string
	Name string
	Role UserRole
}

func (u User) Admin() bool {
	return u.Role == UserRoleAdmin
}
