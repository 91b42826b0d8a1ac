package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"farmwise/handlers"
	"farmwise/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Public routes (no authentication)
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")

	// Protected API routes (require JWT authentication)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.SecurityMiddleware)
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/profile", handlers.GetProfile).Methods("GET")

	registerFarmRoutes(api)

	return r
}

func registerFarmRoutes(api *mux.Router) {
	api.HandleFunc("/farms", handlers.CreateFarm).Methods("POST")
	api.HandleFunc("/farms", handlers.GetFarms).Methods("GET")
	api.HandleFunc("/farms/{id}", handlers.GetFarm).Methods("GET")
	api.HandleFunc("/farms/{id}", handlers.UpdateFarm).Methods("PUT")
	api.HandleFunc("/farms/{id}/status", handlers.UpdateFarmStatus).Methods("POST")
	api.HandleFunc("/farms/{id}/harvest-window", handlers.GetHarvestWindow).Methods("GET")

	api.HandleFunc("/farms/{id}/recommendations/generate", handlers.GenerateDailyRecommendation).Methods("POST")
	api.HandleFunc("/farms/{id}/recommendations/today", handlers.GetTodayRecommendation).Methods("GET")
	api.HandleFunc("/farms/{id}/recommendations", handlers.GetRecommendationByDate).Methods("GET")

	api.HandleFunc("/farms/{id}/feedback", handlers.SubmitFeedback).Methods("POST")
	api.HandleFunc("/farms/{id}/feedback", handlers.GetFeedbackTrail).Methods("GET")

	api.HandleFunc("/farms/{id}/activities", handlers.LogActivity).Methods("POST")
	api.HandleFunc("/farms/{id}/activities", handlers.GetActivities).Methods("GET")
	api.HandleFunc("/farms/{id}/activities/export", handlers.ExportActivities).Methods("GET")
}
