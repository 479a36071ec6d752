package api

func (s *Server) registerRoutes() {
	// Public
	s.echo.POST("/api/auth/register", s.handleRegister)
	s.echo.POST("/api/auth/login", s.handleLogin)
	s.echo.GET("/api/health", s.handleHealth)

	// Authenticated
	api := s.echo.Group("/api", s.authService.Middleware())
	api.GET("/search", s.handleSearch)
	api.GET("/items", s.handleListItems)
	api.GET("/folders", s.handleListFolders)
	api.POST("/folders", s.handleCreateFolder)

	// Insertable actions: opening a result for detail or playback is what
	// turns a placeholder into a library item.
	insertable := api.Group("", s.pipeline.Middleware())
	insertable.GET("/items/:id", s.handleGetItem)
	insertable.POST("/items/:id/play", s.handlePlayItem)

	// Event stream
	s.echo.GET("/ws", s.hub.HandleWebSocket)
}
