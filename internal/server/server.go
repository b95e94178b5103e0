package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caro-server/internal/api/controller"
	"caro-server/internal/api/service"
	"caro-server/internal/hub"
)

var tracer = otel.Tracer("server")

// Server wires the HTTP API and the websocket game endpoint.
type Server struct {
	hub         *hub.Hub
	users       *controller.UserController
	leaderboard *controller.LeaderboardController
	upgrader    websocket.Upgrader
	engine      *gin.Engine
}

// NewServer builds the gin engine with all routes registered.
func NewServer(h *hub.Hub, userService service.UserService, users *controller.UserController, leaderboard *controller.LeaderboardController) *Server {
	s := &Server{
		hub:         h,
		users:       users,
		leaderboard: leaderboard,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", users.Register)
		auth.POST("/login", users.Login)
		auth.POST("/guest", users.GuestLogin)

		me := api.Group("/users")
		me.Use(controller.AuthRequired(userService))
		me.GET("/me", users.Me)
		me.PUT("/me", users.UpdateMe)

		api.GET("/leaderboard", leaderboard.Top)
	}

	engine.GET("/ws/play-game", s.handleWebSocket)

	s.engine = engine
	return s
}

// Engine exposes the gin engine for http.Server wiring.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// handleWebSocket upgrades the connection, binds it to a hub session, and
// pumps inbound messages until the socket drops. A drop is handed to the
// session so the seat is forfeited.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
	))
	defer span.End()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upgrade connection")
		return
	}

	// The player id is an opaque connection-scoped token: taken from the
	// query when the client carries one (e.g. a guest login id), generated
	// otherwise.
	playerID := c.Query("playerId")
	if playerID == "" {
		playerID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("player.id", playerID))

	session := s.hub.NewSession(playerID, conn)
	slog.InfoContext(ctx, "client connected", "player.id", playerID)

	defer func() {
		session.Close(ctx)
		conn.Close()
		slog.InfoContext(ctx, "client disconnected", "player.id", playerID)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		session.HandleMessage(ctx, msg)
	}
}
