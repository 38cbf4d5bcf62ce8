//go:build yxpdebug

package xpath

import (
	"fmt"
	"strings"
)

// assertSorted checks with a bubble sort that s is in document order. A
// single pass without swap proves it.
func assertSorted(s *NodeSet) {
	list := make([]Node, len(s.nodes))
	copy(list, s.nodes)
	for i := len(list); i > 1; i-- {
		var swapped bool
		for j := 1; j < i; j++ {
			if s.compare(list[j-1], list[j]) > 0 {
				list[j-1], list[j] = list[j], list[j-1]
				swapped = true
			}
		}
		if !swapped {
			return
		}
		panic(fmt.Sprintf("node-set not in document order: %s", joinNodes(s.nodes, ", ")))
	}
}

func joinNodes(list []Node, sep string) string {
	var str strings.Builder
	for i, n := range list {
		if i > 0 {
			str.WriteString(sep)
		}
		str.WriteString(n.Path())
	}
	return str.String()
}
