package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/mansoorceksport/aegis/internal/config"
	"github.com/mansoorceksport/aegis/internal/domain"
	"github.com/mansoorceksport/aegis/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedUser struct {
	Email    string
	Name     string
	Password string
	Role     string
}

func main() {
	adminEmail := flag.String("admin-email", "admin@example.com", "Email for the seeded admin account")
	adminPassword := flag.String("admin-password", "", "Password for the seeded admin account (required)")
	withDemo := flag.Bool("with-demo", false, "Also seed a demo member account")
	flag.Parse()

	if *adminPassword == "" {
		log.Fatal("-admin-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	users := db.Collection("users")

	seeds := []seedUser{
		{Email: *adminEmail, Name: "Administrator", Password: *adminPassword, Role: domain.RoleAdmin},
	}
	if *withDemo {
		seeds = append(seeds, seedUser{Email: "demo@example.com", Name: "Demo User", Password: "demo-password-123", Role: domain.RoleUser})
	}

	for _, u := range seeds {
		hash, err := service.HashPassword(u.Password)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.Email, err)
		}

		now := time.Now()
		_, err = users.InsertOne(ctx, map[string]interface{}{
			"email":           u.Email,
			"name":            u.Name,
			"role":            u.Role,
			"hashed_password": hash,
			"created_at":      now,
			"updated_at":      now,
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				fmt.Printf("Skipping duplicate: %s\n", u.Email)
				continue
			}
			log.Printf("Error creating %s: %v\n", u.Email, err)
			continue
		}
		fmt.Printf("Created: %s (%s)\n", u.Email, u.Role)
	}
	fmt.Println("Seeding Users Complete.")
}
