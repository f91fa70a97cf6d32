package mappings

// Role names a well-known ledger account used by automated postings.
type Role string

const (
	RoleCash               Role = "CASH"
	RoleAccruedLiabilities Role = "ACCRUED_LIABILITIES"
	RoleDeferredAssets     Role = "DEFERRED_ASSETS"
	RoleRetainedEarnings   Role = "RETAINED_EARNINGS"
)

// AccountMapping links a role to an account number.
type AccountMapping struct {
	Role          Role
	AccountNumber string
	Name          string
}
