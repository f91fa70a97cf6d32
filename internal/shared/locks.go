package shared

import "strconv"

// PeriodCloseLockKey names the distributed lock held while a period closes.
func PeriodCloseLockKey(periodID int64) string {
	return "ledger:period:" + strconv.FormatInt(periodID, 10) + ":close"
}
