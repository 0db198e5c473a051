package models

import "time"

// TaskDependency records that TaskID cannot start before DependsOnID is done
type TaskDependency struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	TaskID      string    `json:"task_id"`
	DependsOnID string    `json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// DependencyGraph is the rendered layout of a project's dependency DAG
type DependencyGraph struct {
	ProjectID string      `json:"project_id"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
	Depth     int         `json:"depth"`
}

type GraphNode struct {
	TaskID   string `json:"task_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Layer    int    `json:"layer"`
	Order    int    `json:"order"`
	Blocked  bool   `json:"blocked"` // At least one prerequisite is not done
}

// GraphEdge points from the prerequisite to the dependent task
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
