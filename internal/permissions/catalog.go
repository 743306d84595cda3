package permissions

// Canonical permission strings understood by the staff-service. Any change
// here is a breaking change and must land together with the backend seeds.
const (
	PermOrdersView  = "orders:view"
	PermOrdersManage = "orders:manage"

	PermCampaignsView   = "marketing:campaigns:view"
	PermCampaignsManage = "marketing:campaigns:manage"

	PermCouponsView   = "marketing:coupons:view"
	PermCouponsManage = "marketing:coupons:manage"

	PermTaxesView   = "settings:taxes:view"
	PermTaxesManage = "settings:taxes:manage"

	PermDomainsView   = "settings:domains:view"
	PermDomainsManage = "settings:domains:manage"

	PermApprovalsView   = "settings:approvals:view"
	PermApprovalsManage = "settings:approvals:manage"

	PermImportsView   = "settings:imports:view"
	PermImportsManage = "settings:imports:manage"

	PermAuditView = "audit:logs:view"

	PermStaffView   = "staff:view"
	PermStaffManage = "staff:manage"

	PermInventoryView = "inventory:view"
)

// Role priority levels, mirroring the staff-service role seeds exactly.
const (
	PriorityViewer          = 10
	PriorityCustomerSupport = 50
	PrioritySpecialist      = 60
	PriorityManager         = 70
	PriorityAdmin           = 90
	PriorityOwner           = 100
)

// catalog maps symbolic permission identifiers used by the admin UIs to
// canonical strings. Legacy aliases resolve to the same canonical value and
// stay until both admin clients drop them.
var catalog = map[string]string{
	"ORDERS_READ":      PermOrdersView,
	"ORDERS_MANAGE":    PermOrdersManage,
	"CAMPAIGNS_READ":   PermCampaignsView,
	"CAMPAIGNS_MANAGE": PermCampaignsManage,
	"COUPONS_READ":     PermCouponsView,
	"COUPONS_MANAGE":   PermCouponsManage,
	"TAXES_READ":       PermTaxesView,
	"TAXES_MANAGE":     PermTaxesManage,
	"DOMAINS_READ":     PermDomainsView,
	"DOMAINS_MANAGE":   PermDomainsManage,
	"APPROVALS_READ":   PermApprovalsView,
	"APPROVALS_MANAGE": PermApprovalsManage,
	"IMPORTS_READ":     PermImportsView,
	"IMPORTS_MANAGE":   PermImportsManage,
	"AUDIT_READ":       PermAuditView,
	"STAFF_READ":       PermStaffView,
	"STAFF_MANAGE":     PermStaffManage,
	"INVENTORY_READ":   PermInventoryView,

	// Legacy aliases from the ad-manager era.
	"ADS_READ":        PermCampaignsView,
	"ADS_MANAGE":      PermCampaignsManage,
	"PROMOTIONS_READ": PermCouponsView,
	"AUDIT_LOGS_READ": PermAuditView,
}

// Canonical resolves a symbolic identifier to its canonical permission
// string. Unknown symbols resolve to the empty string, which never matches.
func Canonical(symbol string) string {
	return catalog[symbol]
}

// Scopes lists every canonical permission the gateway gates on.
func Scopes() []string {
	return []string{
		PermOrdersView,
		PermOrdersManage,
		PermCampaignsView,
		PermCampaignsManage,
		PermCouponsView,
		PermCouponsManage,
		PermTaxesView,
		PermTaxesManage,
		PermDomainsView,
		PermDomainsManage,
		PermApprovalsView,
		PermApprovalsManage,
		PermImportsView,
		PermImportsManage,
		PermAuditView,
		PermStaffView,
		PermStaffManage,
		PermInventoryView,
	}
}
