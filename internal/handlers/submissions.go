package handlers

import (
	"net/http"
	"strconv"

	"crm-integrator/internal/database"

	"github.com/gin-gonic/gin"
)

// ListSubmissions — журнал заявок для операторов, свежие первыми.
func ListSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	rows, total, err := database.ListSubmissions(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить журнал заявок"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"submissions": rows,
	})
}

func GetSubmission(c *gin.Context) {
	rec, err := database.GetSubmission(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
