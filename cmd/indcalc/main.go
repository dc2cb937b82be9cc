package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skalibog/indcalc/internal/calculation"
	"github.com/skalibog/indcalc/internal/config"
	"github.com/skalibog/indcalc/internal/exchange"
	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/internal/metrics"
	"github.com/skalibog/indcalc/internal/storage"
	"github.com/skalibog/indcalc/pkg/logger"
	"github.com/skalibog/indcalc/pkg/models"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Обработка флагов командной строки
	flags := flag.NewFlagSet("indcalc", flag.ContinueOnError)
	configPath := flags.String("config", "", "путь к файлу конфигурации")
	name := flags.String("indicator", indicator.SMA, "имя индикатора")
	paramsFlag := flags.String("params", "", "параметры вида period=20,std_dev=2")
	sourceType := flags.String("source", "", "источник свечей: demo, influxdb, binance")
	symbol := flags.String("symbol", "", "символ")
	tail := flags.Int("tail", 10, "сколько последних строк вывести")
	metricsAddr := flags.String("metrics-addr", "", "адрес HTTP для /metrics")
	list := flags.Bool("list", false, "вывести поддерживаемые индикаторы и движки")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		cfg = loaded
	}
	if *sourceType != "" {
		cfg.Source.Type = *sourceType
	}
	if *symbol != "" {
		cfg.Source.Symbol = *symbol
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *metricsAddr
	}
	// Неизвестный источник отсекается до подключения
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if err := logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer logger.GetLogger().Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var opts []calculation.Option
	waitMetrics := func() {}
	if cfg.Metrics.Enabled {
		m := metrics.New(cfg.Metrics.Namespace)
		opts = append(opts, calculation.WithObserver(m))
		waitMetrics = serveMetrics(ctx, cfg.Metrics.Addr, m.Handler())
	}

	svc := calculation.NewFromConfig(cfg.Engine, opts...)
	if *list {
		printCatalog(os.Stdout, svc)
		return 0
	}

	params, err := indicator.ParseParams(*paramsFlag)
	if err != nil {
		logger.Error("Ошибка разбора параметров", zap.Error(err))
		return 2
	}

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		logger.Error("Ошибка инициализации источника свечей", zap.Error(err))
		return 1
	}
	defer closeSource()

	candles, err := storage.WithRetry(source, 3).GetCandles(ctx, cfg.Source.Symbol, cfg.Source.Interval, cfg.Source.Limit)
	if err != nil {
		logger.Error("Ошибка получения свечей", zap.Error(err))
		return 1
	}
	logger.Info("Свечи загружены",
		zap.String("source", cfg.Source.Type),
		zap.String("symbol", cfg.Source.Symbol),
		zap.Int("count", len(candles)))

	table := models.NewTable(candles)
	resp := svc.Calculate(*name, table, params)
	render(os.Stdout, resp, table, *tail)

	if cfg.Metrics.Enabled {
		logger.Info("Метрики доступны до сигнала завершения", zap.String("addr", cfg.Metrics.Addr))
		waitMetrics()
	}
	if !resp.Success {
		return 1
	}
	return 0
}

// serveMetrics поднимает HTTP сервер метрик и останавливает его по завершении ctx.
// Возвращаемая функция блокируется до остановки сервера.
func serveMetrics(ctx context.Context, addr string, h http.Handler) func() {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Сервер метрик остановлен", zap.Error(err))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ошибка остановки сервера метрик", zap.Error(err))
		}
	}()
	return func() { <-done }
}

func openSource(ctx context.Context, cfg *config.Config) (storage.CandleSource, func(), error) {
	switch cfg.Source.Type {
	case config.SourceDemo:
		return storage.DemoSource{Seed: 42}, func() {}, nil
	case config.SourceInfluxDB:
		store, err := storage.NewInfluxDBStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.SourceBinance:
		return exchange.NewBinanceClient(cfg.Binance), func() {}, nil
	}
	return nil, nil, fmt.Errorf("неизвестный источник свечей: %q", cfg.Source.Type)
}
