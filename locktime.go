package blkreader

import (
	"fmt"
	"strconv"
	"time"
)

// Values below this are block heights, everything else is a UNIX
// timestamp.
const LockTimeThreshold = 500_000_000

type LockTime uint32

func (l LockTime) IsHeightLock() bool {
	return l < LockTimeThreshold
}

func (l LockTime) IsTimeLock() bool {
	return l >= LockTimeThreshold
}

// Height panics if l is a time lock.
func (l LockTime) Height() uint32 {
	if !l.IsHeightLock() {
		panic(fmt.Sprintf("LockTime %d is based on time, not height", uint32(l)))
	}
	return uint32(l)
}

// Time panics if l is a height lock.
func (l LockTime) Time() time.Time {
	if !l.IsTimeLock() {
		panic(fmt.Sprintf("LockTime %d is based on height, not time", uint32(l)))
	}
	return time.Unix(int64(l), 0).UTC()
}

func (l LockTime) String() string {
	return strconv.FormatUint(uint64(l), 10)
}

// Satisfy sql.Scanner, postgres stores it as int32.
func (l *LockTime) Scan(value interface{}) error {
	if i, ok := value.(int64); !ok {
		return fmt.Errorf("Unexpected type: %T", value)
	} else {
		*l = LockTime(uint32(i))
	}
	return nil
}
