package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/viper"

	"video-analysis/database"
	"video-analysis/handlers"
	"video-analysis/services"
)

func init() {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_SSLMODE", "disable")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: Error reading .env file:", err)
	}
	viper.AutomaticEnv()
}

func main() {
	database.Connect()

	if err := os.MkdirAll(services.StorageRoot(), 0755); err != nil {
		log.Fatal("Failed to create storage directory:", err)
	}

	r := mux.NewRouter()
	handlers.New(database.DB).Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	addr := ":" + viper.GetString("PORT")
	log.Printf("Server running on %s...", addr)
	log.Fatal(http.ListenAndServe(addr, c.Handler(r)))
}
