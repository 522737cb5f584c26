// Package pagination translates between the page granularity the portal UI
// displays and the fixed page size the upstream API serves.
//
// The upstream hands out pages of serverPageSize items (30 for Stack Overflow
// for Teams); the UI shows clientPageSize items at a time (5 by default).
// Translation maps a client page index onto the single server page that
// contains it plus the local slice bounds within that page.
//
// All page indices are 1-based. Functions here are pure and perform no I/O.
package pagination

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPageRatio is returned when a client page cannot be served
// from a single server page: either the client page size exceeds the server
// page size, or the sizes are misaligned so that a client page would straddle
// a server page boundary. Both are configuration errors, not runtime
// conditions.
var ErrUnsupportedPageRatio = errors.New("client page size incompatible with server page size")

// ValidateRatio checks that clientPageSize and serverPageSize can be
// translated without a client page ever spanning two server pages.
// This requires clientPageSize <= serverPageSize and clientPageSize to divide
// serverPageSize evenly.
func ValidateRatio(clientPageSize, serverPageSize int) error {
	if clientPageSize < 1 || serverPageSize < 1 {
		return fmt.Errorf("%w: page sizes must be positive (client=%d, server=%d)",
			ErrUnsupportedPageRatio, clientPageSize, serverPageSize)
	}
	if clientPageSize > serverPageSize {
		return fmt.Errorf("%w: client page size %d exceeds server page size %d",
			ErrUnsupportedPageRatio, clientPageSize, serverPageSize)
	}
	if serverPageSize%clientPageSize != 0 {
		return fmt.Errorf("%w: server page size %d is not a multiple of client page size %d",
			ErrUnsupportedPageRatio, serverPageSize, clientPageSize)
	}
	return nil
}

// ServerPageFor returns the 1-based server page that contains the given
// 1-based client page: ceil(clientPage * clientPageSize / serverPageSize).
func ServerPageFor(clientPage, clientPageSize, serverPageSize int) (int, error) {
	if err := ValidateRatio(clientPageSize, serverPageSize); err != nil {
		return 0, err
	}
	if clientPage < 1 {
		return 0, fmt.Errorf("client page must be positive, got %d", clientPage)
	}

	globalEnd := clientPage * clientPageSize
	return (globalEnd + serverPageSize - 1) / serverPageSize, nil
}

// SliceBounds returns the half-open local index range [start, end) of the
// client page's items within the given server page.
//
// globalStart = (clientPage-1)*clientPageSize is the absolute index of the
// client page's first item; subtracting the server page's own global offset
// yields the local start.
func SliceBounds(clientPage, serverPage, clientPageSize, serverPageSize int) (start, end int, err error) {
	if err := ValidateRatio(clientPageSize, serverPageSize); err != nil {
		return 0, 0, err
	}
	if clientPage < 1 || serverPage < 1 {
		return 0, 0, fmt.Errorf("pages must be positive, got client=%d server=%d", clientPage, serverPage)
	}

	globalStart := (clientPage - 1) * clientPageSize
	serverStart := (serverPage - 1) * serverPageSize

	start = globalStart - serverStart
	end = start + clientPageSize

	if start < 0 || end > serverPageSize {
		return 0, 0, fmt.Errorf("%w: client page %d maps to [%d,%d) outside server page %d",
			ErrUnsupportedPageRatio, clientPage, start, end, serverPage)
	}

	return start, end, nil
}

// TotalClientPages returns ceil(totalItems / clientPageSize), the number of
// client pages needed to display totalItems. Zero items means zero pages.
func TotalClientPages(totalItems, clientPageSize int) int {
	if totalItems <= 0 || clientPageSize < 1 {
		return 0
	}
	return (totalItems + clientPageSize - 1) / clientPageSize
}
