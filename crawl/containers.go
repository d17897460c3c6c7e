package crawl

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/fwojciec/carlot"
)

// SelectListings reduces ranked container candidates to one candidate per
// listing. A candidate enclosing two or more other candidates is a list
// wrapper and is dropped. A candidate nested inside a kept candidate
// describes the same listing and is dropped too. The survivors are returned
// in page order.
//
// Nodes whose dynamic type is not comparable cannot be related to each other
// and the candidates are returned unchanged.
func SelectListings(candidates []carlot.ContainerCandidate) []carlot.ContainerCandidate {
	if len(candidates) < 2 {
		return candidates
	}
	for _, c := range candidates {
		if c.Node == nil || !reflect.TypeOf(c.Node).Comparable() {
			return candidates
		}
	}

	index := make(map[carlot.Node]int, len(candidates))
	for i, c := range candidates {
		index[c.Node] = i
	}

	nested := make([][]int, len(candidates))
	for i, c := range candidates {
		carlot.Walk(c.Node, func(n carlot.Node) bool {
			if n == c.Node {
				return true
			}
			if j, ok := index[n]; ok {
				nested[i] = append(nested[i], j)
			}
			return true
		})
	}

	drop := make([]bool, len(candidates))
	for i := range candidates {
		if len(nested[i]) >= 2 {
			drop[i] = true
		}
	}
	for i := range candidates {
		if drop[i] {
			continue
		}
		for _, j := range nested[i] {
			drop[j] = true
		}
	}

	var out []carlot.ContainerCandidate
	for i, c := range candidates {
		if !drop[i] {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(x, y carlot.ContainerCandidate) int {
		return cmp.Compare(x.PageOrder, y.PageOrder)
	})
	return out
}
