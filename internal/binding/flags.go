package binding

import (
	"fmt"
	"strings"
)

// LoggingFlags selects which strategy events the runtime logs.
type LoggingFlags uint32

const (
	LogNullOrderSize LoggingFlags = 1 << iota
	LogRemovingOrder
	LogAdjustOrder
	LogCreateOrder
	LogMakerOrderFilled
	LogStatusReport
	LogMakerOrderHedged

	LogAll LoggingFlags = 0xfffffff
)

// DefaultLoggingFlags is the set the strategy starts with when none is
// configured.
const DefaultLoggingFlags = LogCreateOrder | LogAdjustOrder | LogMakerOrderFilled |
	LogRemovingOrder | LogStatusReport | LogMakerOrderHedged

var flagNames = []struct {
	flag LoggingFlags
	name string
}{
	{LogNullOrderSize, "NULL_ORDER_SIZE"},
	{LogRemovingOrder, "REMOVING_ORDER"},
	{LogAdjustOrder, "ADJUST_ORDER"},
	{LogCreateOrder, "CREATE_ORDER"},
	{LogMakerOrderFilled, "MAKER_ORDER_FILLED"},
	{LogStatusReport, "STATUS_REPORT"},
	{LogMakerOrderHedged, "MAKER_ORDER_HEDGED"},
}

func (f LoggingFlags) Has(o LoggingFlags) bool { return f&o == o }

// Names lists the set flags in bit order.
func (f LoggingFlags) Names() []string {
	if f == LogAll {
		return []string{"ALL"}
	}
	var out []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}

func (f LoggingFlags) String() string {
	if f == 0 {
		return "NONE"
	}
	return strings.Join(f.Names(), "|")
}

// ParseLoggingFlags maps option names ("create_order", "ALL") to a bit-set.
// An empty list yields DefaultLoggingFlags.
func ParseLoggingFlags(names []string) (LoggingFlags, error) {
	if len(names) == 0 {
		return DefaultLoggingFlags, nil
	}
	var out LoggingFlags
	for _, raw := range names {
		name := strings.ToUpper(strings.TrimSpace(raw))
		name = strings.TrimPrefix(name, "OPTION_LOG_")
		if name == "ALL" {
			out |= LogAll
			continue
		}
		found := false
		for _, fn := range flagNames {
			if fn.name == name {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown logging option %q", raw)
		}
	}
	return out, nil
}
