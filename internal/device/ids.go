// Package device maps stable logical device ids onto the physical slots a platform reports.
//
// Logical ids are assigned consecutively by the runtime. Physical ids are what the
// platform enumerates. The mapping comes from a visible device list such as "2,0".
package device

import (
	"fmt"
	"strconv"
	"strings"
)

// LogicalID is the runtime-assigned device index.
type LogicalID int

// PhysicalID is the platform-reported device index.
type PhysicalID int

func (id LogicalID) String() string  { return "logical:" + strconv.Itoa(int(id)) }
func (id PhysicalID) String() string { return "physical:" + strconv.Itoa(int(id)) }

// ParseVisibleDeviceList parses a comma separated list of physical ids.
// The position of an entry is its logical id. An empty list returns nil, which
// registries treat as the identity mapping over every visible device.
func ParseVisibleDeviceList(list string) ([]PhysicalID, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	parts := strings.Split(list, ",")
	ids := make([]PhysicalID, 0, len(parts))
	seen := make(map[PhysicalID]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("device: visible device list %q: %q is not an integer", list, p)
		}
		if n < 0 {
			return nil, fmt.Errorf("device: visible device list %q: negative id %d", list, n)
		}
		id := PhysicalID(n)
		if seen[id] {
			return nil, fmt.Errorf("device: visible device list %q: duplicate id %d", list, n)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatVisibleDeviceList is the inverse of ParseVisibleDeviceList.
func FormatVisibleDeviceList(ids []PhysicalID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ",")
}
