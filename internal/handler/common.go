package handler

import (
	"net/http"

	"ticket-reservation/internal/result"

	"github.com/gin-gonic/gin"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// statusOf maps an operation outcome to the HTTP status code it travels as.
func statusOf(s result.Status) int {
	switch s {
	case result.StatusOK:
		return http.StatusOK
	case result.StatusValidationError:
		return http.StatusBadRequest
	case result.StatusNotFound:
		return http.StatusNotFound
	case result.StatusConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeResult renders a Result: the payload on success, the collected error
// codes otherwise.
func writeResult[T any](c *gin.Context, res result.Result[T], successCode int) {
	if res.IsSuccess() {
		c.JSON(successCode, res.Data)
		return
	}
	c.JSON(statusOf(res.Status), gin.H{
		"errors": res.Errors,
	})
}
