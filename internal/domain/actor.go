package domain

// Actor is the authenticated identity attached to a request. Staff actors
// carry a staff id, clients carry their customer id.
type Actor struct {
	ID   int64
	Role string
}

const (
	RoleAdmin  = "Admin"
	RoleSales  = "Sales"
	RoleClient = "Client"
)

func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleSales
}

// Owns reports whether the actor is the customer the order belongs to.
func (a Actor) Owns(order *Order) bool {
	return a.Role == RoleClient && a.ID == order.CustomerID
}
