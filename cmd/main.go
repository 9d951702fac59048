package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classboard/cache"
	configs "classboard/config"
	"classboard/logger"
	"classboard/mongoconn"
	"classboard/natsclient"
	"classboard/repository"
	"classboard/service"
)

func main() {
	configValues := configs.LoadConfig()

	logStreamer, err := logger.NewLogStreamer(configValues.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logStreamer.Sync()

	mongoClient := mongoconn.ConnectDB(configValues.MongoDBURL)
	defer mongoClient.Disconnect(context.Background())

	repoInstance := repository.NewRepository(mongoClient, configValues.MongoDatabase)
	if err := repoInstance.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	redisCache := cache.NewRedisCache(configValues.RedisURL, configValues.RedisPassword, 0)

	natsClient, err := natsclient.NewNatsClient(configValues.NATSURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	serviceInstance := service.NewService(repoInstance, natsClient, redisCache, configValues, logStreamer)

	if err := serviceInstance.WarmLeaderboardCache(context.Background()); err != nil {
		log.Printf("Initial cache warm failed: %v", err)
	}

	if err := serviceInstance.RegisterSubscriptions(natsClient); err != nil {
		log.Fatalf("Failed to register NATS subscriptions: %v", err)
	}

	cronRunner := serviceInstance.StartCronJob()
	defer cronRunner.Stop()

	log.Printf("classboard leaderboard service running, submissions on %q", configValues.SubmissionSubject)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
}
