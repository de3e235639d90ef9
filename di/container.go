package di

import (
	"context"
	"fmt"
	"log"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"sched-server/api"
	"sched-server/api/booking"
	"sched-server/cache"
	"sched-server/config"
	redisdao "sched-server/dao/redis"
	"sched-server/db"
	"sched-server/server"
	"sched-server/server/handlers"
	services "sched-server/service"
)

// Container holds all application dependencies.
type Container struct {
	RedisClient           db.RedisClient
	ScheduleDao           *redisdao.RedisScheduleDAO
	BookingAPI            booking.BookingAPI
	PeriodCache           *cache.PeriodCache
	WindowManager         *cache.WindowManager
	PrefetchService       *services.PrefetchService
	ReconcilerService     *services.ReconcilerService
	ScheduleService       *services.ScheduleService
	CacheRefresherService *services.CacheRefresherService
	ScheduleHandler       *handlers.ScheduleHandler
	MuxRouter             *mux.Router
	Router                *server.Router
	SchedHttpServer       *server.SchedHttpServer
}

// NewContainer initializes and wires up all dependencies.
//
// Environments:
//   - "prod":       real redis, upstream booking API over HTTP
//   - "standalone": real redis, redis itself is the data source
//   - anything else: in-memory mock redis, fixture-backed booking API
func NewContainer(cfg config.Config) *Container {
	log.Printf("initializing container - env: %s", cfg.Env)
	ctx := context.Background()

	var redisClient db.RedisClient
	if cfg.Env == "prod" || cfg.Env == "standalone" {
		internalClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: config.REDIS_DB_PASSWORD,
			DB:       config.REDIS_DB,
		})
		redisClient = db.NewSchedRedisClient(ctx, internalClient)
		if err := redisClient.Ping(); err != nil {
			panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
		}
	} else {
		redisClient = db.NewMockRedisClient(ctx)
		log.Printf("Using in-memory mock redis")
	}

	scheduleDao := redisdao.NewRedisScheduleDAO(redisClient)

	var bookingAPI booking.BookingAPI
	switch cfg.Env {
	case "prod":
		log.Printf("Using upstream booking api")
		httpClient := api.NewHTTPClient(config.BOOKING_ENDPOINT_BASE_V1)
		bookingAPI = booking.NewBookingApiClient(httpClient)
	case "standalone":
		log.Printf("Using redis-backed booking source")
		bookingAPI = scheduleDao
	default:
		log.Printf("Using mock booking api")
		bookingAPI = booking.NewBookingApiClientMock()
	}

	periodCache := cache.NewPeriodCache()
	windowManager := cache.NewWindowManager(periodCache, config.RESIDENT_BUFFER_SIZE, true)
	prefetchService := services.NewPrefetchService(periodCache, bookingAPI)
	scheduleService := services.NewScheduleService(windowManager, periodCache, prefetchService)
	reconcilerService := services.NewReconcilerService(periodCache, config.EVENT_QUEUE_SIZE, scheduleService.InvalidateAll)
	cacheRefresherService := services.NewCacheRefresherService(windowManager, prefetchService)

	scheduleHandler := handlers.NewScheduleHandler(scheduleService, reconcilerService, scheduleDao)

	muxRouter := mux.NewRouter()
	router := server.NewRouter(scheduleHandler, muxRouter)
	schedHttpServer := server.NewSchedHttpServer(router, muxRouter, cfg.Listen)

	return &Container{
		RedisClient:           redisClient,
		ScheduleDao:           scheduleDao,
		BookingAPI:            bookingAPI,
		PeriodCache:           periodCache,
		WindowManager:         windowManager,
		PrefetchService:       prefetchService,
		ReconcilerService:     reconcilerService,
		ScheduleService:       scheduleService,
		CacheRefresherService: cacheRefresherService,
		ScheduleHandler:       scheduleHandler,
		MuxRouter:             muxRouter,
		Router:                router,
		SchedHttpServer:       schedHttpServer,
	}
}
