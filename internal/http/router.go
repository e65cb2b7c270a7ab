package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/itinerary-backend/internal/http/handlers"
	httpMW "github.com/yungbote/itinerary-backend/internal/http/middleware"
	"github.com/yungbote/itinerary-backend/internal/observability"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	HealthHandler    *httpH.HealthHandler
	ItineraryHandler *httpH.ItineraryHandler
	RealtimeHandler  *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if h := cfg.ItineraryHandler; h != nil {
			api.GET("/itinerary", h.Get)
			api.PUT("/itinerary", h.Replace)
			api.GET("/itinerary/outline", h.GetOutline)
			api.PUT("/itinerary/outline", h.ReplaceOutline)
			api.POST("/itinerary/days/:date/items", h.AddItem)
			api.PATCH("/itinerary/days/:date/items/:index", h.UpdateItem)
			api.DELETE("/itinerary/days/:date/items/:index", h.RemoveItem)
			api.GET("/itinerary/pending", h.Pending)
			api.POST("/itinerary/enrich", h.Enrich)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/itinerary/events", cfg.RealtimeHandler.Events)
		}
	}

	return r
}
