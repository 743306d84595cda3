package jobs

import (
	"context"
	"fmt"

	"github.com/aldercommerce/alder-admin/internal/imports"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// UpstreamPusher delivers validated import rows to the owning platform
// service.
type UpstreamPusher struct {
	Catalog *upstream.Client
	Coupon  *upstream.Client
}

var _ imports.RowPusher = (*UpstreamPusher)(nil)

type rowBatch struct {
	Rows []map[string]string `json:"rows"`
}

// PushRows posts one batch to the service that owns the import kind.
func (p *UpstreamPusher) PushRows(ctx context.Context, id shared.Identity, kind string, rows []map[string]string) error {
	if len(rows) == 0 {
		return nil
	}
	switch kind {
	case imports.KindProducts:
		return p.Catalog.Post(ctx, id, "/v1/products/import", rowBatch{Rows: rows}, nil)
	case imports.KindCustomers:
		return p.Catalog.Post(ctx, id, "/v1/customers/import", rowBatch{Rows: rows}, nil)
	case imports.KindCoupons:
		return p.Coupon.Post(ctx, id, "/v1/coupons/import", rowBatch{Rows: rows}, nil)
	}
	return fmt.Errorf("no upstream for import kind %q", kind)
}
