// Package resource contains the resource aggregate: a named network
// destination exposed through one or more sites.
package resource

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// AddressType classifies how a resource address is expressed.
type AddressType string

const (
	AddressTypeDNS  AddressType = "dns"
	AddressTypeCIDR AddressType = "cidr"
	AddressTypeIP   AddressType = "ip"
)

// DetectAddressType classifies an address string and validates it.
func DetectAddressType(address string) (AddressType, error) {
	if address == "" {
		return "", fmt.Errorf("resource address is required")
	}
	if ip := net.ParseIP(address); ip != nil {
		return AddressTypeIP, nil
	}
	if _, _, err := net.ParseCIDR(address); err == nil {
		return AddressTypeCIDR, nil
	}
	// DNS names may carry a leading wildcard label.
	name := strings.TrimPrefix(address, "*.")
	if name == "" || strings.ContainsAny(name, " /\\") {
		return "", fmt.Errorf("invalid resource address: %s", address)
	}
	return AddressTypeDNS, nil
}

// Resource is a network destination reachable through gateways. Its address
// is unique within an account.
type Resource struct {
	id          uint
	sid         string
	accountID   uint
	name        string
	address     string
	addressType AddressType
	deletedAt   *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewResource creates a new resource with a validated address.
func NewResource(accountID uint, name, address string) (*Resource, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("resource name is required")
	}
	addrType, err := DetectAddressType(address)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Resource{
		sid:         id.MustGenerateWithPrefix(id.PrefixResource, id.DefaultLength),
		accountID:   accountID,
		name:        name,
		address:     address,
		addressType: addrType,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructResource rebuilds a resource from persistence.
func ReconstructResource(
	resourceID uint,
	sid string,
	accountID uint,
	name, address string,
	addressType AddressType,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Resource, error) {
	if resourceID == 0 {
		return nil, fmt.Errorf("resource ID cannot be zero")
	}
	return &Resource{
		id:          resourceID,
		sid:         sid,
		accountID:   accountID,
		name:        name,
		address:     address,
		addressType: addressType,
		deletedAt:   deletedAt,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (r *Resource) ID() uint                 { return r.id }
func (r *Resource) SID() string              { return r.sid }
func (r *Resource) AccountID() uint          { return r.accountID }
func (r *Resource) Name() string             { return r.name }
func (r *Resource) Address() string          { return r.address }
func (r *Resource) AddressType() AddressType { return r.addressType }
func (r *Resource) DeletedAt() *time.Time    { return r.deletedAt }
func (r *Resource) CreatedAt() time.Time     { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time     { return r.updatedAt }

// SetID assigns the database identity after the initial insert.
func (r *Resource) SetID(resourceID uint) error {
	if r.id != 0 {
		return fmt.Errorf("resource ID already set")
	}
	r.id = resourceID
	return nil
}

// IsDeleted reports whether the resource is soft-deleted.
func (r *Resource) IsDeleted() bool { return r.deletedAt != nil }
