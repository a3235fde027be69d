package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "bookbus/internal/config"
	intdb "bookbus/internal/db"
	router "bookbus/internal/http"
	"bookbus/internal/http/handlers"
	"bookbus/internal/logger"
	"bookbus/internal/repositories"
	"bookbus/internal/services"
	"bookbus/internal/worker"

	"github.com/sirupsen/logrus"
)

func main() {
	completeOnce := flag.Bool("complete-bookings", false, "mark past bookings completed and exit")
	flag.Parse()

	env := intconfig.LoadEnv()
	logger.Setup(env.LogFile, env.LogLevel)

	db := intconfig.ConnectDB(env)
	defer intconfig.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := intdb.EnsureSchema(ctx, db); err != nil {
		logrus.WithError(err).Fatal("ensure schema")
	}

	store := repositories.Store{DB: db, LockTimeout: env.SeatLockTimeout}
	sweeper := services.BookingService{
		Store: store,
		Ledger: services.LedgerService{
			Store:   store,
			Entries: repositories.LedgerRepo{DB: db},
			Users:   repositories.UserRepo{DB: db},
		},
		Location: env.Timezone,
		Retries:  env.BookingRetries,
	}

	if *completeOnce {
		n, err := sweeper.AdvanceCompletions(ctx, sweeper.Today())
		if err != nil {
			logrus.WithError(err).Fatal("complete bookings")
		}
		logrus.WithField("completed", n).Info("completion sweep done")
		return
	}

	go worker.Completion{Sweeper: sweeper, Interval: env.CompletionInterval}.Run(ctx)

	r := router.NewRouter(env, handlers.API{
		DB:          db,
		Secret:      []byte(env.JWTSecret),
		Location:    env.Timezone,
		LockTimeout: env.SeatLockTimeout,
		Retries:     env.BookingRetries,
		CodeTTL:     env.OTPTTL,
		Mailer:      services.LogMailer{},
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.Infof("listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown")
		return
	}
	logrus.Info("server stopped cleanly")
}
