package server

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Auth
	mux.HandleFunc("/api/auth/signup", s.handleSignup)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)

	// Users
	mux.HandleFunc("/api/users", s.routeUsers)

	// J-Quants account and search
	mux.HandleFunc("/api/jquants/register", s.handleJQuantsRegister)
	mux.HandleFunc("/api/jquants/search", s.handleJQuantsSearch)

	// Stocks
	mux.HandleFunc("/api/stocks/", s.handleStockInfo)

	// Favorites
	mux.HandleFunc("/api/favorites/summary", s.handleFavoriteSummary)
	mux.HandleFunc("/api/favorites/chart.png", s.handleFavoriteChart)
	mux.HandleFunc("/api/favorites/", s.handleFavoriteDelete)
	mux.HandleFunc("/api/favorites", s.routeFavorites)
}
