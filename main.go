package main

import (
	"strings"
	"time"

	"github.com/plumekit/plume/config"
	"github.com/plumekit/plume/models"
	"github.com/plumekit/plume/routes"
	"github.com/plumekit/plume/services"
	"github.com/plumekit/plume/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{}, &models.Category{}, &models.Post{}, &models.PostCategory{},
		&models.Comment{}, &models.Favorite{}, &models.Subscription{},
		&models.Reaction{}, &models.SearchEntry{},
	)

	index := services.NewSearchIndex(db)
	if err := index.EnsureSchema(); err != nil {
		utils.Sugar.Warnf("full-text schema setup failed, substring fallback stays active: %v", err)
	}

	ttl := time.Duration(cfg.SearchCacheTTLSec) * time.Second
	postCache := newResultCache(cfg, "search:posts:", ttl)
	userCache := newResultCache(cfg, "search:users:", ttl)

	svc := routes.Services{
		Users:         services.NewUserService(db, userCache),
		Posts:         services.NewPostService(db, postCache, index),
		Comments:      services.NewCommentService(db),
		Categories:    services.NewCategoryService(db),
		Subscriptions: services.NewSubscriptionService(db),
		Broadcaster:   services.NewBroadcaster(utils.GetRedis(), cfg.BroadcastChannel),
	}

	r := routes.SetupRouter(db, svc)

	utils.Sugar.Infof("starting server on port %s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// newResultCache picks the configured cache backend. Redis keeps cached pages
// shared across replicas; the in-process LRU needs nothing extra.
func newResultCache(cfg config.AppConfig, prefix string, ttl time.Duration) services.ResultCache {
	if strings.EqualFold(cfg.SearchCacheBackend, "redis") {
		if rdb := utils.GetRedis(); rdb != nil {
			return services.NewRedisResultCache(rdb, prefix, ttl)
		}
		utils.Sugar.Warn("redis cache backend requested but redis is disabled, using memory")
	}
	cache, err := services.NewLRUResultCache(cfg.SearchCacheCapacity, ttl)
	if err != nil {
		utils.Sugar.Fatalf("result cache init failed: %v", err)
	}
	return cache
}
