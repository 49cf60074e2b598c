package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ExportResponse struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Count    int    `json:"count"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func (h *Handler) createExport(c *gin.Context) {
	id, _ := currentIdentity(c)
	res, err := h.exports.Export(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.WithField("user_id", id.UserID).Infof("exported %d records to %s", res.Count, res.Location)
	c.JSON(http.StatusCreated, ExportResponse{Key: res.Key, Location: res.Location, URL: res.URL, Count: res.Count})
}

func (h *Handler) listExports(c *gin.Context) {
	id, _ := currentIdentity(c)
	objects, err := h.exports.ListExports(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i, obj := range objects {
		resp[i] = StorageObjectResponse{Key: obj.Key, Size: obj.Size}
		if obj.LastModified != nil && !obj.LastModified.IsZero() {
			v := obj.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}
