//go:build !yxpdebug

package xpath

func assertSorted(_ *NodeSet) {}
