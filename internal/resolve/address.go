// Package resolve turns human-readable identifiers into canonical ones: ENS names into
// addresses, usernames into account ids, and dates into block numbers.
package resolve

import (
	"context"
	"fmt"
	"strings"

	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// NameResolver looks up the address behind a name. A name with no address returns "" and no error.
type NameResolver interface {
	ResolveName(ctx context.Context, name string) (string, error)
}

// IsAddress reports whether s is 0x followed by 40 hex characters
func IsAddress(s string) bool {
	return validate.IsAddress(s)
}

// AddressResolver resolves literal addresses and ENS names
type AddressResolver struct {
	names NameResolver
}

// NewAddressResolver creates an AddressResolver backed by names
func NewAddressResolver(names NameResolver) *AddressResolver {
	return &AddressResolver{names: names}
}

// Resolve returns a literal address unchanged; anything else is resolved as a name
func (r *AddressResolver) Resolve(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if IsAddress(input) {
		return input, nil
	}
	if input == "" || r.names == nil {
		return "", fnerrors.NewENSError(input)
	}

	addr, err := r.names.ResolveName(ctx, input)
	if err != nil {
		return "", fnerrors.NewDefaultError(fmt.Errorf("resolve %s: %w", input, err))
	}
	if addr == "" {
		return "", fnerrors.NewENSError(input)
	}
	return addr, nil
}

// AddressBook maps resolved lowercase addresses back to the name they came from, in input order
type AddressBook struct {
	order []string
	names map[string]string
}

// Addresses returns the resolved addresses in input order
func (b *AddressBook) Addresses() []string {
	return append([]string(nil), b.order...)
}

// Name returns the original name of addr, or nil when addr was given literally
func (b *AddressBook) Name(addr string) any {
	if name := b.names[strings.ToLower(addr)]; name != "" {
		return name
	}
	return nil
}

// Len returns the number of distinct addresses
func (b *AddressBook) Len() int {
	return len(b.order)
}

// ResolveBatch resolves each entry of a comma-separated list independently
func (r *AddressResolver) ResolveBatch(ctx context.Context, csv string) (*AddressBook, error) {
	book := &AddressBook{names: make(map[string]string)}
	for _, input := range types.SplitList(csv) {
		addr, err := r.Resolve(ctx, input)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(addr)
		if _, seen := book.names[key]; seen {
			continue
		}
		name := ""
		if !IsAddress(input) {
			name = input
		}
		book.order = append(book.order, key)
		book.names[key] = name
	}
	return book, nil
}
