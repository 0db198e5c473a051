package handler

import (
	"net/http"

	"teamhub/internal/httputil"
	"teamhub/internal/permissions"
)

// RolesHandler exposes the project role policy so the UI can grey out actions
type RolesHandler struct {
	registry *permissions.Registry
}

func NewRolesHandler(registry *permissions.Registry) *RolesHandler {
	return &RolesHandler{registry: registry}
}

type roleResponse struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Rank        int      `json:"rank"`
	Actions     []string `json:"actions"`
}

// ListRoles returns each role with its flattened (inherited) actions, highest rank first
// GET /api/roles
func (h *RolesHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	defs := h.registry.Roles()
	out := make([]roleResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, roleResponse{
			Name:        def.Name,
			DisplayName: def.DisplayName,
			Rank:        def.Rank,
			Actions:     h.registry.Actions(def.Name),
		})
	}

	httputil.RespondJSON(w, http.StatusOK, out)
}
