package shared

// Invoice permissions declared for the authorization gate.
const (
	PermInvoicesRead    = "invoices:read"
	PermInvoicesReadOwn = "invoices:read:own"
	PermInvoicesWrite   = "invoices:write"
)

// BillingScopes lists all permissions related to invoicing.
func BillingScopes() []string {
	return []string{
		PermInvoicesRead,
		PermInvoicesReadOwn,
		PermInvoicesWrite,
	}
}
