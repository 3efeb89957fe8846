package id

import (
	"fmt"
	"strconv"
	"strings"
)

// OpeningRowKey is the row key of the synthetic opening-balance row.
const OpeningRowKey = "opening"

// RowKey returns the row key for a single-account ledger row, e.g. "je-17-0".
func RowKey(entryID string, index int) string {
	return entryID + "-" + strconv.Itoa(index)
}

// GroupedRowKey returns the row key for an all-accounts ledger row, e.g.
// "je-17-1010-4". The account id keeps keys unique when the same entry id
// recurs under several accounts.
func GroupedRowKey(entryID, accountID string, index int) string {
	return entryID + "-" + accountID + "-" + strconv.Itoa(index)
}

// RowIndex extracts the trailing index from a row key.
func RowIndex(rowKey string) (int, error) {
	i := strings.LastIndex(rowKey, "-")
	if i < 0 || i == len(rowKey)-1 {
		return 0, fmt.Errorf("invalid row key: %q", rowKey)
	}
	n, err := strconv.Atoi(rowKey[i+1:])
	if err != nil {
		return 0, fmt.Errorf("invalid index in row key %q: %w", rowKey, err)
	}
	return n, nil
}

// OpeningVoucherNo returns the voucher number used for an opening-balance
// adjustment, e.g. "OB-2025-1010".
func OpeningVoucherNo(fiscalYear int, accountID string) string {
	return fmt.Sprintf("OB-%04d-%s", fiscalYear, accountID)
}
