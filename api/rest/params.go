package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parsePagination validates the fetch_size and page query params.
// fetch_size must be in [1, maxFetch], page must be ≥ 1. Writes the 400
// response itself and reports ok=false on failure.
func parsePagination(c *gin.Context, maxFetch int) (fetchSize, page int, ok bool) {
	fs := c.Query("fetch_size")
	if fs == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fetch_size param"})
		return
	}
	fetchSize, err := strconv.Atoi(fs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fetch_size param is not a number"})
		return
	}
	if fetchSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fetch_size param is too small"})
		return
	}
	if fetchSize > maxFetch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fetch_size param is too large"})
		return
	}

	p := c.Query("page")
	if p == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing page param"})
		return
	}
	page, err = strconv.Atoi(p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page param is not a number"})
		return
	}
	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page param is too small"})
		return
	}
	return fetchSize, page, true
}

// validCkey bounds a ckey query/path param.
func validCkey(ckey string) bool {
	return len(ckey) >= 1 && len(ckey) <= 32
}
