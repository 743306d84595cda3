package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// ErrFetchFailed indicates the staff-service call did not complete with a
// success status. Callers treat the effective permission set as empty.
var ErrFetchFailed = errors.New("permissions: fetch failed")

// ParseError indicates the staff-service answered 2xx but the payload did
// not satisfy the boundary schema. Distinct from ErrFetchFailed so operators
// can tell a contract break from an outage.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "permissions: parse response: " + e.Reason
}

// Fetcher obtains the effective permission state for one identity.
type Fetcher interface {
	Fetch(ctx context.Context, id shared.Identity) (Snapshot, error)
}

// StaffFetcher resolves permissions against the remote staff-service.
type StaffFetcher struct {
	baseURL string
	client  *http.Client
}

// NewStaffFetcher constructs a StaffFetcher for the given base URL.
func NewStaffFetcher(baseURL string, timeout time.Duration) *StaffFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StaffFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Boundary schema for the staff-service permissions payload. Decoded with
// unknown fields tolerated; the shape checks below are explicit so a
// contract drift surfaces as a ParseError instead of a silently empty set.
type staffPermissionsEnvelope struct {
	Data *staffPermissionsData `json:"data"`
}

type staffPermissionsData struct {
	Permissions      []staffPermissionRef `json:"permissions"`
	Roles            []staffRoleRef       `json:"roles"`
	MaxPriorityLevel *int                 `json:"maxPriorityLevel"`
	CanManageStaff   bool                 `json:"canManageStaff"`
	CanCreateRoles   bool                 `json:"canCreateRoles"`
	CanDeleteRoles   bool                 `json:"canDeleteRoles"`
}

type staffPermissionRef struct {
	Name string `json:"name"`
}

type staffRoleRef struct {
	PriorityLevel int                  `json:"priorityLevel"`
	Permissions   []staffPermissionRef `json:"permissions"`
}

// Fetch performs the single remote call and normalizes the result. The flat
// permission list wins; when it is empty the nested role grants are
// flattened and the max role priority becomes the effective priority.
func (f *StaffFetcher) Fetch(ctx context.Context, id shared.Identity) (Snapshot, error) {
	endpoint := f.baseURL + "/api/staff/me/permissions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	id.ApplyClaimHeaders(req.Header)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Snapshot{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var envelope staffPermissionsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Snapshot{}, &ParseError{Reason: err.Error()}
	}
	return normalize(envelope, id)
}

func normalize(envelope staffPermissionsEnvelope, id shared.Identity) (Snapshot, error) {
	data := envelope.Data
	if data == nil {
		return Snapshot{}, &ParseError{Reason: "missing data object"}
	}

	perms := make([]string, 0, len(data.Permissions))
	seen := make(map[string]struct{}, len(data.Permissions))
	appendPerm := func(name string) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return &ParseError{Reason: "permission entry without name"}
		}
		if _, dup := seen[name]; dup {
			return nil
		}
		seen[name] = struct{}{}
		perms = append(perms, name)
		return nil
	}

	for _, ref := range data.Permissions {
		if err := appendPerm(ref.Name); err != nil {
			return Snapshot{}, err
		}
	}

	priority := 0
	if data.MaxPriorityLevel != nil {
		priority = *data.MaxPriorityLevel
	}

	if len(perms) == 0 {
		for _, role := range data.Roles {
			for _, ref := range role.Permissions {
				if err := appendPerm(ref.Name); err != nil {
					return Snapshot{}, err
				}
			}
			if data.MaxPriorityLevel == nil && role.PriorityLevel > priority {
				priority = role.PriorityLevel
			}
		}
	}

	return Snapshot{
		UserID:         id.UserID,
		TenantID:       id.TenantID,
		Permissions:    perms,
		Priority:       priority,
		CanManageStaff: data.CanManageStaff,
		CanCreateRoles: data.CanCreateRoles,
		CanDeleteRoles: data.CanDeleteRoles,
		FetchedAt:      time.Now(),
	}, nil
}
