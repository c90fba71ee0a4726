package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/http/respond"
)

// GroupHandlers serves group reads that go beyond plain CRUD
type GroupHandlers struct {
	groups domain.GroupRepository
}

func NewGroupHandlers(groups domain.GroupRepository) *GroupHandlers {
	return &GroupHandlers{groups: groups}
}

// TeacherGroups lists the groups taught by teacher :id
func (h *GroupHandlers) TeacherGroups(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	groups, err := h.groups.ListByTeacher(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, groups)
}
