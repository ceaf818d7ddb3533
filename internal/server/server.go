/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
dialogue engine to the WhatsApp webhook.
*/
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"mamamind/internal/database"
	"mamamind/internal/dialogue"
	"mamamind/internal/format"
	"mamamind/internal/planner"
	"mamamind/internal/sonar"
	"mamamind/internal/whatsapp"
)

var startTime = time.Now()

// Server holds the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db provides access to the database service and connection pool.
	db database.Service

	// engine drives the conversation state machine.
	engine *dialogue.Engine

	// sender pushes outbound messages through the Twilio REST API.
	sender *whatsapp.Client
}

// NewServer initializes a new Server instance and returns a configured *http.Server.
// It reads configuration from environment variables and sets production-ready
// network timeouts.
func NewServer(db database.Service) *http.Server {
	// Attempt to parse port from environment; fallback to 8080 if not set or invalid.
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	charLimit, _ := strconv.Atoi(os.Getenv("WHATSAPP_CHAR_LIMIT"))
	fmtr := format.New(charLimit)

	ai := sonar.NewClient(os.Getenv("SONAR_API_KEY"), os.Getenv("SONAR_API_URL"))

	newApp := &Server{
		port:   port,
		db:     db,
		engine: dialogue.NewEngine(db.Queries(), planner.New(ai), fmtr),
		sender: whatsapp.NewClient(
			os.Getenv("TWILIO_ACCOUNT_SID"),
			os.Getenv("TWILIO_AUTH_TOKEN"),
			os.Getenv("TWILIO_PHONE_NUMBER"),
			"",
		),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout:  time.Minute,             // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second,        // Maximum duration for reading the entire request.
		WriteTimeout: 90 * time.Second,        // Generous because a turn may wait on the upstream AI service.
	}

	return server
}
