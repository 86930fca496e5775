package server

import (
	"io/fs"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/feature"
	"github.com/ceyewan/routemetrics/metrics"
)

var indexUIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,400}$`)

type handlers struct {
	logger   clog.Logger
	meter    metrics.Meter
	features feature.Service
	tasks    *TaskQueue
	assets   fs.FS
}

func (h *handlers) register(r gin.IRoutes) {
	r.GET("/health", h.health)

	r.GET("/tasks", h.listTasks)
	r.GET("/tasks/:task_id", h.getTask)
	r.POST("/indexes/:index_uid/documents", h.addDocuments)

	r.GET("/keys", h.listKeys)
	r.GET("/keys/:key", h.getKey)

	r.GET("/experimental-features", h.getFeatures)
	r.PATCH("/experimental-features", h.patchFeatures)

	r.GET("/metrics", h.metrics)

	r.GET("/static/*filepath", h.asset("static"))
	r.GET("/fonts/*filepath", h.asset("fonts"))
	r.GET("/favicon.ico", h.file("favicon.ico"))
	r.GET("/manifest.json", h.file("manifest.json"))
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "available"})
}

func (h *handlers) listTasks(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, NewResponseError(http.StatusBadRequest, CodeBadRequest, ErrorTypeInvalidRequest,
				"invalid value in parameter `limit`: "+raw))
			return
		}
		limit = n
	}

	tasks := h.tasks.List(limit)
	c.JSON(http.StatusOK, gin.H{
		"results": tasks,
		"limit":   limit,
		"total":   h.tasks.Len(),
	})
}

func (h *handlers) getTask(c *gin.Context) {
	raw := c.Param("task_id")
	uid, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		abortWithError(c, NewResponseError(http.StatusBadRequest, CodeInvalidTaskUID, ErrorTypeInvalidRequest,
			"invalid task uid `"+raw+"`: the task uid must be an integer"))
		return
	}

	task, err := h.tasks.Get(uid)
	if err != nil {
		abortWithError(c, NewResponseError(http.StatusNotFound, CodeTaskNotFound, ErrorTypeInvalidRequest,
			"task `"+raw+"` not found"))
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) addDocuments(c *gin.Context) {
	indexUID := c.Param("index_uid")
	if !indexUIDPattern.MatchString(indexUID) {
		abortWithError(c, NewResponseError(http.StatusBadRequest, CodeInvalidIndexUID, ErrorTypeInvalidRequest,
			"`"+indexUID+"` is not a valid index uid"))
		return
	}

	var documents []map[string]any
	if err := c.ShouldBindJSON(&documents); err != nil {
		abortWithError(c, NewResponseError(http.StatusBadRequest, CodeMissingRequiredBody, ErrorTypeInvalidRequest,
			"a json payload is required: "+err.Error()))
		return
	}

	task, err := h.tasks.Enqueue(c.Request.Context(), indexUID, len(documents))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, task.Summary())
}

func (h *handlers) listKeys(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": []any{}, "limit": 20, "total": 0})
}

func (h *handlers) getKey(c *gin.Context) {
	abortWithError(c, NewResponseError(http.StatusNotFound, CodeAPIKeyNotFound, ErrorTypeInvalidRequest,
		"api key `"+c.Param("key")+"` not found"))
}

func (h *handlers) getFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, h.features.Runtime())
}

func (h *handlers) patchFeatures(c *gin.Context) {
	var patch feature.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, NewResponseError(http.StatusBadRequest, CodeBadRequest, ErrorTypeInvalidRequest,
			"invalid experimental features payload: "+err.Error()))
		return
	}

	updated, err := h.features.Update(c.Request.Context(), patch)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "update experimental features failed", clog.Error(err))
		abortWithError(c, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "experimental features updated",
		clog.Bool("metrics", updated.Metrics))
	c.JSON(http.StatusOK, updated)
}

// metrics 导出 Prometheus 指标，特性未开启时返回 400
func (h *handlers) metrics(c *gin.Context) {
	if err := h.features.CheckMetrics(); err != nil {
		abortWithError(c, err)
		return
	}
	h.meter.Handler().ServeHTTP(c.Writer, c.Request)
}

func (h *handlers) asset(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.serve(c, dir+"/"+strings.TrimPrefix(c.Param("filepath"), "/"))
	}
}

func (h *handlers) file(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.serve(c, name)
	}
}

func (h *handlers) serve(c *gin.Context, name string) {
	if h.assets == nil {
		c.Status(http.StatusNotFound)
		return
	}
	if _, err := fs.Stat(h.assets, name); err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.FileFromFS(name, http.FS(h.assets))
}
