package main

import (
	"flag"
	"log"

	"kinogate/internal/validation"
)

func main() {
	var baseURL string
	var jwtSecret string
	flag.StringVar(&baseURL, "url", "http://localhost:8081", "Base URL for API validation")
	flag.StringVar(&jwtSecret, "jwt-secret", "dev-secret", "Secret used to mint the validation token")
	flag.Parse()

	log.Printf("Starting ticket lifecycle validation against: %s", baseURL)

	validator, err := validation.NewLifecycleValidator(baseURL, jwtSecret)
	if err != nil {
		log.Fatalf("Validation setup failed: %v", err)
	}
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("Validation failed: %v", err)
	}

	log.Println("Validation passed")
}
