package service

import (
	redisx "github.com/parkwise/parkgo/internal/redis"
	postgres "github.com/parkwise/parkgo/internal/repository/postgres"
	redis "github.com/parkwise/parkgo/internal/repository/redis"
	"github.com/parkwise/parkgo/internal/service/allocation"
	"github.com/parkwise/parkgo/internal/service/booking"
	"github.com/parkwise/parkgo/internal/service/lots"
	"github.com/parkwise/parkgo/internal/service/query"
)

type Services struct {
	Allocation *allocation.Service
	Booking    *booking.Service
	Lots       *lots.Service
	Query      *query.Service
}

type Config struct {
	Query query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.LotsPubSub,
	limiter *redis.SlidingWindowLimiter,
	cfg Config,
) *Services {
	alloc := allocation.New(store, cache, pubsub)

	return &Services{
		Allocation: alloc,
		Booking:    booking.New(store, alloc, cache, pubsub, limiter),
		Lots:       lots.New(store, cache, pubsub),
		Query:      query.New(store, cache, cfg.Query),
	}
}
