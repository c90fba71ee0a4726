package handlers

import (
	"context"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/you/schoolsvc/internal/http/respond"
)

// ResourceStore is plain CRUD over one entity type
type ResourceStore[T any] interface {
	List(ctx context.Context, where map[string]interface{}) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, id uint, row *T) (*T, error)
	Delete(ctx context.Context, id uint) error
}

// ResourceHandlers serves CRUD routes for classrooms, teachers, students,
// groups and schedules. filters maps accepted query parameters to columns.
type ResourceHandlers[T any] struct {
	store   ResourceStore[T]
	filters map[string]string
}

func NewResourceHandlers[T any](store ResourceStore[T], filters map[string]string) *ResourceHandlers[T] {
	return &ResourceHandlers[T]{store: store, filters: filters}
}

func (h *ResourceHandlers[T]) List(c *gin.Context) {
	where := map[string]interface{}{}
	for param, column := range h.filters {
		id, err := queryID(c, param)
		if err != nil {
			respond.Error(c, err)
			return
		}
		if id != 0 {
			where[column] = id
		}
	}
	h.list(c, where)
}

// ListBy lists the rows whose column equals the :id path parameter
func (h *ResourceHandlers[T]) ListBy(column string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respond.Error(c, err)
			return
		}
		h.list(c, map[string]interface{}{column: id})
	}
}

func (h *ResourceHandlers[T]) list(c *gin.Context, where map[string]interface{}) {
	rows, err := h.store.List(c.Request.Context(), where)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	respond.Data(c, http.StatusOK, rows)
}

func (h *ResourceHandlers[T]) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	row, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, row)
}

func (h *ResourceHandlers[T]) Create(c *gin.Context) {
	row := new(T)
	if err := c.ShouldBindJSON(row); err != nil {
		respond.BindError(c, err)
		return
	}
	// ids are assigned by the store
	setID(row, 0)
	if err := h.store.Create(c.Request.Context(), row); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusCreated, row)
}

func (h *ResourceHandlers[T]) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	row := new(T)
	if err := c.ShouldBindJSON(row); err != nil {
		respond.BindError(c, err)
		return
	}
	setID(row, id)
	updated, err := h.store.Update(c.Request.Context(), id, row)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Data(c, http.StatusOK, updated)
}

func (h *ResourceHandlers[T]) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func setID(row interface{}, id uint) {
	v := reflect.ValueOf(row).Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	f := v.FieldByName("ID")
	if f.IsValid() && f.CanSet() && f.Kind() == reflect.Uint {
		f.SetUint(uint64(id))
	}
}
