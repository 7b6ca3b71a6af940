package models

type Entity string

const (
	EntityUsers        Entity = "users"
	EntityTransactions Entity = "transactions"
	EntityCategories   Entity = "categories"
	EntityBudgets      Entity = "budgets"
)

// EntityKey scopes cached reads and change notifications to one user's collection.
type EntityKey struct {
	Entity Entity
	UserID string
}

func (k EntityKey) String() string {
	return string(k.Entity) + ":" + k.UserID
}

// Owned is implemented by every record that belongs to a single user.
type Owned interface {
	RecordID() string
	OwnerID() string
}
