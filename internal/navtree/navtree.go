// Package navtree builds the site's navigation tree: a bounded-depth walk
// of the page hierarchy honoring each page's nav_stop flag, skipping
// children with no nav_label, sorted by priority then by case-folded
// label, with the path to the currently rendered page marked active.
package navtree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mbuesch/go-cms/internal/dbclient"
	"github.com/mbuesch/go-cms/internal/ident"
)

// MaxDepth bounds recursive descent so a misconfigured or maliciously
// deep page tree cannot exhaust the render pipeline's stack.
const MaxDepth = 64

// Node is one entry of the built navigation tree.
type Node struct {
	ID       ident.CheckedIdent
	Label    string
	Active   bool
	Children []*Node
}

// DBClient is the subset of dbclient.Client the nav-tree builder needs,
// narrowed to an interface so it can be exercised with a fake in tests.
type DBClient interface {
	GetSubPages(id ident.CheckedIdent) ([]dbclient.SubPageInfo, error)
}

// Build walks the page tree from the root and returns its navigation
// nodes, marking every node on the path to current as Active.
func Build(client DBClient, current ident.CheckedIdent) ([]*Node, error) {
	return BuildSubtree(client, ident.Root, current)
}

// BuildSubtree is Build rooted at base instead of the page-tree root,
// used to render the "pagelist" statement's embedded navigation blocks.
func BuildSubtree(client DBClient, base, current ident.CheckedIdent) ([]*Node, error) {
	return buildLevel(client, base, current, 0)
}

func buildLevel(client DBClient, parent, current ident.CheckedIdent, depth int) ([]*Node, error) {
	if depth >= MaxDepth {
		return nil, fmt.Errorf("navtree: max depth %d exceeded at %s", MaxDepth, parent.Downgrade())
	}

	subs, err := client.GetSubPages(parent)
	if err != nil {
		return nil, fmt.Errorf("navtree: subpages of %s: %w", parent.Downgrade(), err)
	}

	type entry struct {
		node *Node
		prio uint64
		sort string
	}

	entries := make([]entry, 0, len(subs))

	for _, sub := range subs {
		if sub.NavLabel == "" {
			continue
		}

		elem, err := ident.Parse(sub.Name).AsElement()
		if err != nil {
			continue
		}
		childID, err := parent.Downgrade().CloneAppend(elem.Downgrade().String()).CheckUser()
		if err != nil {
			continue
		}

		node := &Node{
			ID:     childID,
			Label:  sub.NavLabel,
			Active: current.Downgrade().StartsWith(childID.Downgrade()),
		}

		if !sub.NavStop {
			children, err := buildLevel(client, childID, current, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = children
		}

		entries = append(entries, entry{
			node: node,
			prio: sub.Prio,
			sort: strings.ToLower(strings.TrimSpace(sub.NavLabel)),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].prio != entries[j].prio {
			return entries[i].prio < entries[j].prio
		}

		return entries[i].sort < entries[j].sort
	})

	out := make([]*Node, len(entries))
	for i, e := range entries {
		out[i] = e.node
	}

	return out, nil
}

