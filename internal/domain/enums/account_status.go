package enums

// AccountStatus is the moderation state of an account. Only active accounts
// can pass the visibility gate.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusRemoved   AccountStatus = "removed"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusSuspended, AccountStatusRemoved:
		return true
	default:
		return false
	}
}
