package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mansoorceksport/aegis/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func main() {
	mongoURI := flag.String("mongo", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName := flag.String("db", "aegis", "Database name")
	revokedRetentionDays := flag.Int("revoked-retention", 30, "Days to keep revoked tokens before purging")
	dryRun := flag.Bool("dry-run", false, "Show what would be purged without making changes")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}

	db := client.Database(*dbName)
	coll := db.Collection("refresh_tokens")
	cutoff := time.Now().AddDate(0, 0, -*revokedRetentionDays)

	if *dryRun {
		expired, err := coll.CountDocuments(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now()}})
		if err != nil {
			log.Fatalf("Failed to count expired tokens: %v", err)
		}
		revoked, err := coll.CountDocuments(ctx, bson.M{"revoked": true, "revoked_at": bson.M{"$lt": cutoff}})
		if err != nil {
			log.Fatalf("Failed to count revoked tokens: %v", err)
		}
		fmt.Printf("Dry run: would purge %d expired and %d revoked tokens (revoked before %s)\n",
			expired, revoked, cutoff.Format(time.RFC3339))
		os.Exit(0)
	}

	store := repository.NewMongoRefreshTokenStore(db)

	var expiredCount, revokedCount int64
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := store.DeleteExpired(gCtx)
		expiredCount = n
		return err
	})
	g.Go(func() error {
		n, err := store.DeleteRevokedBefore(gCtx, cutoff)
		revokedCount = n
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	fmt.Printf("Purged %d expired and %d revoked tokens\n", expiredCount, revokedCount)
}
