package seeder

import (
	"fmt"

	"github.com/maksimowich/fake-data-generator/internal/config"
	"github.com/maksimowich/fake-data-generator/internal/profile"
)

// DependencyGraph orders entities so that every entity comes after the
// entities its foreign keys point at. References to tables outside the set
// are external and add no edge.
type DependencyGraph struct {
	entities   []config.Entity
	index      map[string]int
	dependents [][]int
	inDegree   []int
	linked     map[[2]int]bool
	order      []string
}

func NewDependencyGraph(entities []config.Entity) (*DependencyGraph, error) {
	g := &DependencyGraph{
		entities:   entities,
		index:      make(map[string]int, len(entities)),
		dependents: make([][]int, len(entities)),
		inDegree:   make([]int, len(entities)),
		linked:     make(map[[2]int]bool),
	}
	for i, e := range entities {
		if _, exists := g.index[e.Destination]; exists {
			return nil, fmt.Errorf("duplicate destination: %s", e.Destination)
		}
		g.index[e.Destination] = i
	}

	for i, e := range entities {
		g.link(i, referencedTables(e.Columns))
	}
	return g, nil
}

// AddReferences adds edges from destination to the given tables. It is used
// for foreign keys that live in persisted profiles rather than in hints.
func (g *DependencyGraph) AddReferences(destination string, tables []string) error {
	i, ok := g.index[destination]
	if !ok {
		return fmt.Errorf("unknown entity: %s", destination)
	}
	g.link(i, tables)
	return nil
}

func (g *DependencyGraph) link(i int, tables []string) {
	for _, table := range tables {
		dep, ok := g.index[table]
		if !ok || g.linked[[2]int{dep, i}] {
			continue
		}
		g.linked[[2]int{dep, i}] = true
		g.dependents[dep] = append(g.dependents[dep], i)
		g.inDegree[i]++
	}
}

// referencedTables collects foreign key targets, nested fields included.
func referencedTables(hints []profile.Hints) []string {
	var tables []string
	for _, h := range hints {
		if h.ForeignKey != nil {
			tables = append(tables, h.ForeignKey.Table)
		}
		tables = append(tables, referencedTables(h.Fields)...)
	}
	return tables
}

// profileReferences collects the foreign key targets of built profiles.
func profileReferences(profiles []*profile.ColumnProfile) []string {
	var tables []string
	for _, p := range profiles {
		if p.Kind() == profile.KindForeignKey {
			tables = append(tables, p.ForeignKey().Table)
		}
		tables = append(tables, profileReferences(p.Fields())...)
	}
	return tables
}

// BuildInsertionOrder sorts the entities with Kahn's algorithm. Ties keep
// the input order, so the result is deterministic.
func (g *DependencyGraph) BuildInsertionOrder() ([]config.Entity, error) {
	inDegree := make([]int, len(g.inDegree))
	copy(inDegree, g.inDegree)

	queue := make([]int, 0, len(g.entities))
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	ordered := make([]config.Entity, 0, len(g.entities))
	names := make([]string, 0, len(g.entities))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		ordered = append(ordered, g.entities[i])
		names = append(names, g.entities[i].Destination)
		for _, dep := range g.dependents[i] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(ordered) < len(g.entities) {
		var stuck []string
		for i, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, g.entities[i].Destination)
			}
		}
		return nil, &CyclicDependencyError{Entities: stuck}
	}

	g.order = names
	return ordered, nil
}

func (g *DependencyGraph) GetOrder() []string {
	return g.order
}
