package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/hospital-appointment-scheduler/internal/appointment"
	"github.com/hackgods/hospital-appointment-scheduler/internal/config"
	"github.com/hackgods/hospital-appointment-scheduler/internal/db"
	"github.com/hackgods/hospital-appointment-scheduler/internal/notify"
	"github.com/hackgods/hospital-appointment-scheduler/internal/observability/metrics"
	redisclient "github.com/hackgods/hospital-appointment-scheduler/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running reminder worker in env=%s interval=%s", cfg.Env, cfg.ReminderInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	var sender notify.EmailSender
	if cfg.SendGridAPIKey != "" {
		sender, err = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFrom,
			FromName:  cfg.SendGridFromName,
		})
		if err != nil {
			log.Fatalf("sendgrid setup error: %v", err)
		}
		log.Println("sending reminders via SendGrid")
	} else {
		sender = notify.LogSender{}
		log.Println("no SENDGRID_API_KEY set, reminders will be logged only")
	}

	repo := appointment.NewPgRepository(pgPool)
	dedupe := redisclient.NewRedisDeduper(rdb, cfg.ReminderTTL)
	m := metrics.NewSchedulingMetrics(nil)
	svc := appointment.NewReminderService(repo, dedupe, sender, m)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.ReminderService) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.SendReminders(runCtx); err != nil {
		log.Printf("reminder run error: %v", err)
		return
	}
	log.Printf("reminder run complete in %s", time.Since(start))
}
