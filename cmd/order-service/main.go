package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/catalog"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/config"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/database"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/logger"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/server"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/common/tracing"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/events"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/order"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/payment"
	"github.com/docksidedirect/oasis-tides-restaurant-sub001/internal/user"
)

var (
	configPath   = flag.String("config", "configs/order-service.json", "配置文件路径")
	consulKVKey  = flag.String("consul-kv-key", "", "从 Consul KV 加载配置的 key（设置后优先于本地文件）")
	consulKVHost = flag.String("consul-kv-host", "localhost", "Consul KV 地址")
	consulKVPort = flag.Int("consul-kv-port", 8500, "Consul KV 端口")
)

func main() {
	flag.Parse()

	// 加载配置：Consul KV 优先，否则读本地文件（缺省退回内置默认值）
	var (
		cfg *config.Config
		err error
	)
	if *consulKVKey != "" {
		cfg, err = config.LoadConfigFromConsulKV(*consulKVHost, *consulKVPort, *consulKVKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	_, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}

	// 初始化数据库
	db, err := database.InitMySQL(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := db.AutoMigrate(
		&user.User{},
		&catalog.MenuItem{},
		&order.Order{},
		&order.OrderItem{},
		&payment.Payment{},
		&events.StatusChange{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 状态流转事件：库内留痕，可选再发 Kafka
	dbRecorder := events.NewDBRecorder(db)
	var recorder events.Recorder = dbRecorder
	if cfg.Kafka.Enabled {
		kr, err := events.NewKafkaRecorder(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Warnf("failed to init kafka recorder, falling back to db only: %v", err)
		} else {
			defer kr.Close()
			recorder = events.MultiRecorder{dbRecorder, kr}
		}
	}

	// 组装各域
	userRepo := user.NewRepo(db)
	catalogRepo := catalog.NewRepo(db)
	orderRepo := order.NewRepo(db)
	paymentRepo := payment.NewRepo(db)

	pricing := order.FlatPricing{
		TaxRateBps:       cfg.Pricing.TaxRateBps,
		DeliveryFeeCents: cfg.Pricing.DeliveryFeeCents,
	}
	orderSvc := order.NewService(orderRepo, catalogRepo, pricing, recorder, log)
	paymentSvc := payment.NewService(paymentRepo, orderRepo, log)

	userHandler := user.NewHTTPHandler(userRepo, cfg.Auth)
	catalogHandler := catalog.NewHTTPHandler(catalogRepo)
	orderHandler := order.NewHTTPHandler(orderSvc)
	paymentHandler := payment.NewHTTPHandler(paymentSvc)
	eventsHandler := events.NewHTTPHandler(dbRecorder)

	// 启动统一的 HTTP 服务模板
	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) error {
		v1 := r.Group("/api/v1")
		userHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		orderHandler.RegisterRoutes(v1)
		paymentHandler.RegisterRoutes(v1)
		eventsHandler.RegisterRoutes(v1)
		return nil
	}); err != nil {
		log.Fatalf("order-service exited with error: %v", err)
	}
}
