package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/squadfinders/bot-gateway/internal/utils"
)

// boolQuery reads an optional boolean query parameter. The second return is
// false when the value was present but malformed; a 400 has already been
// written in that case.
func boolQuery(c *gin.Context, name string) (*bool, bool) {
	v, err := utils.ParseBoolPtr(c.Query(name))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be true or false")
		return nil, false
	}
	return v, true
}
