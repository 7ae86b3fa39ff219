package dynamo

import (
	"fmt"
	"sort"
	"strings"
)

// ApplyParams sets params on c in name order and stops at the first
// rejected name.
func ApplyParams(c Configurable, params map[string]float64) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := c.SetParam(name, params[name]); err != nil {
			known := make([]string, 0)
			for k := range c.GetParams() {
				known = append(known, k)
			}
			sort.Strings(known)
			return fmt.Errorf("%w (available: %s)", err, strings.Join(known, ", "))
		}
	}
	return nil
}
