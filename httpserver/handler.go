package httpserver

import (
	"io"
	"net/http"
	"time"

	"github.com/aura-studio/mskrouter/route"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

func (e *Engine) InstallHandlers() {
	e.GET("/", e.OK)
	e.GET("/health-check", e.OK)
	e.POST("/invoke", e.Invoke)
	e.POST("/classify", e.Classify)
	e.NoRoute(e.PageNotFound)
}

func (e *Engine) OK(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (e *Engine) PageNotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "404 page not found")
}

func (e *Engine) AccessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	e.logger.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Msg("Request served")
}

// Invoke runs the request body as an MSK event. The HTTP status mirrors the
// statusCode of the router response.
func (e *Engine) Invoke(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	rsp, err := e.invoker.Invoke(c.Request.Context(), body)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	status := int(gjson.GetBytes(rsp, "statusCode").Int())
	if status == 0 {
		status = http.StatusOK
	}
	c.Data(status, "application/json", rsp)
}

// Classify reports the category a single message body would be routed to,
// without sending anything.
func (e *Engine) Classify(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	m, err := route.NewMessage(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := route.Classify(m)
	if !category.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": route.ErrUndeterminedCategory.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queueType": category.String()})
}
