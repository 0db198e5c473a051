// Package depgraph lays out task dependency graphs and guards them against cycles.
package depgraph

import (
	"errors"
	"sort"

	"teamhub/internal/domain/models"
)

// ErrCycle is returned when stored dependencies already contain a cycle
var ErrCycle = errors.New("dependency cycle detected")

// WouldCreateCycle reports whether adding "taskID depends on dependsOnID" closes a cycle,
// i.e. whether taskID is already reachable from dependsOnID by following prerequisites.
func WouldCreateCycle(deps []models.TaskDependency, taskID, dependsOnID string) bool {
	if taskID == dependsOnID {
		return true
	}

	prereqs := make(map[string][]string, len(deps))
	for _, d := range deps {
		prereqs[d.TaskID] = append(prereqs[d.TaskID], d.DependsOnID)
	}

	seen := map[string]bool{dependsOnID: true}
	stack := []string{dependsOnID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range prereqs[cur] {
			if next == taskID {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// Build lays out the graph in layers: a task's layer is the length of the longest
// prerequisite chain leading to it, so every edge points to a strictly higher layer.
// Within a layer nodes are ordered by board position then title then id.
// Edges referencing tasks outside the list are ignored.
func Build(projectID string, tasks []models.Task, deps []models.TaskDependency) (*models.DependencyGraph, error) {
	byID := make(map[string]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	blocked := make(map[string]bool)
	edges := make([]models.GraphEdge, 0, len(deps))

	for _, d := range deps {
		pre, okPre := byID[d.DependsOnID]
		_, okTask := byID[d.TaskID]
		if !okPre || !okTask {
			continue
		}
		indegree[d.TaskID]++
		dependents[d.DependsOnID] = append(dependents[d.DependsOnID], d.TaskID)
		edges = append(edges, models.GraphEdge{From: d.DependsOnID, To: d.TaskID})
		if !pre.IsDone() {
			blocked[d.TaskID] = true
		}
	}

	// Kahn's algorithm, relaxing layers along the way
	layer := make(map[string]int, len(tasks))
	queue := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[cur] {
			if layer[cur]+1 > layer[next] {
				layer[next] = layer[cur] + 1
			}
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited != len(tasks) {
		return nil, ErrCycle
	}

	nodes := make([]models.GraphNode, 0, len(tasks))
	depth := 0
	for _, t := range tasks {
		nodes = append(nodes, models.GraphNode{
			TaskID:   t.ID,
			Title:    t.Title,
			Status:   t.Status,
			Priority: t.Priority,
			Layer:    layer[t.ID],
			Blocked:  blocked[t.ID],
		})
		if layer[t.ID]+1 > depth {
			depth = layer[t.ID] + 1
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Layer != b.Layer {
			return a.Layer < b.Layer
		}
		pa, pb := byID[a.TaskID].Position, byID[b.TaskID].Position
		if pa != pb {
			return pa < pb
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.TaskID < b.TaskID
	})

	order := 0
	for i := range nodes {
		if i > 0 && nodes[i].Layer != nodes[i-1].Layer {
			order = 0
		}
		nodes[i].Order = order
		order++
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return &models.DependencyGraph{
		ProjectID: projectID,
		Nodes:     nodes,
		Edges:     edges,
		Depth:     depth,
	}, nil
}
