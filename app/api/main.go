package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/launchpad/base/ctx"
	"github.com/x-xyz/launchpad/base/database/mongoclient"
	"github.com/x-xyz/launchpad/base/database/redisclient"
	"github.com/x-xyz/launchpad/base/log"
	"github.com/x-xyz/launchpad/base/metrics"
	bValidator "github.com/x-xyz/launchpad/base/validator"
	"github.com/x-xyz/launchpad/domain"
	mmiddleware "github.com/x-xyz/launchpad/middleware"
	"github.com/x-xyz/launchpad/service/assetsvc"
	"github.com/x-xyz/launchpad/service/query"
	"github.com/x-xyz/launchpad/service/redis"
	escrow_delivery "github.com/x-xyz/launchpad/stores/escrow/delivery/http"
	escrow_repository "github.com/x-xyz/launchpad/stores/escrow/repository"
	escrow_usecase "github.com/x-xyz/launchpad/stores/escrow/usecase"
	hc_delivery "github.com/x-xyz/launchpad/stores/healthcheck/delivery/http"
	hc_repo "github.com/x-xyz/launchpad/stores/healthcheck/repository"
	hc_usecase "github.com/x-xyz/launchpad/stores/healthcheck/usecase"
	offering_delivery "github.com/x-xyz/launchpad/stores/offering/delivery/http"
	offering_repository "github.com/x-xyz/launchpad/stores/offering/repository"
	offering_usecase "github.com/x-xyz/launchpad/stores/offering/usecase"
)

func init() {
	pflag.String("config", "infra/configs/config.yaml", "path to the config file")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		panic(err)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(viper.GetString("config"))
	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func marketplaceCfg() offering_usecase.MarketplaceCfg {
	return offering_usecase.MarketplaceCfg{
		PriceStep:          viper.GetInt64("marketplace.priceStep"),
		DepositRateBps:     viper.GetInt64("marketplace.depositRateBps"),
		RevokeFeeRateBps:   viper.GetInt64("marketplace.revokeFeeRateBps"),
		FeeAccount:         domain.Address(viper.GetString("marketplace.feeAccount")).ToLower(),
		StorageCostPerByte: viper.GetInt64("marketplace.storageCostPerByte"),
		MintStorageFeeCap:  viper.GetInt64("marketplace.mintStorageFeeCap"),
		MinDuration:        viper.GetDuration("marketplace.minDuration"),
		MaxDuration:        viper.GetDuration("marketplace.maxDuration"),
		MaxSupply:          viper.GetInt64("marketplace.maxSupply"),
		MintTimeout:        viper.GetDuration("marketplace.mintTimeout"),
		MintWorkers:        viper.GetInt("marketplace.mintWorkers"),
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)

	// init asset service client
	minter := assetsvc.NewClient(&assetsvc.ClientCfg{
		HttpClient:  http.Client{},
		Endpoint:    viper.GetString("assetsvc.endpoint"),
		Apikey:      viper.GetString("assetsvc.apikey"),
		Timeout:     viper.GetDuration("assetsvc.timeout"),
		RetryStart:  viper.GetDuration("assetsvc.retryStart"),
		RetryLimit:  viper.GetDuration("assetsvc.retryLimit"),
		MaxAttempts: viper.GetInt("assetsvc.maxAttempts"),
	})

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	offeringRepo := offering_repository.NewOfferingRepo(q)
	proposalRepo := offering_repository.NewProposalRepo(q)
	acceptableSetRepo := offering_repository.NewAcceptableSetRepo(q)
	escrowRepo := escrow_repository.New(q)

	hc := hc_usecase.New(hcRepo)
	ledger := escrow_usecase.New(escrowRepo)
	offeringUC := offering_usecase.New(&offering_usecase.Config{
		OfferingRepo:      offeringRepo,
		ProposalRepo:      proposalRepo,
		AcceptableSetRepo: acceptableSetRepo,
		Ledger:            ledger,
		Minter:            minter,
		Query:             q,
		Marketplace:       marketplaceCfg(),
	})

	hc_delivery.New(e, hc)
	escrow_delivery.New(e, ledger)
	offering_delivery.New(e, offeringUC)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
