package main

import (
	"fmt"
	"log"

	"crm-integrator/internal/bitrix"
	"crm-integrator/internal/config"
	"crm-integrator/internal/crm"
	"crm-integrator/internal/database"
	"crm-integrator/internal/notify"
	"crm-integrator/internal/order"
	"crm-integrator/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg.DBDSN, cfg.AdminUsername, cfg.AdminPassword)

	client := bitrix.New(bitrix.Config{
		WebhookURL:  cfg.CRMWebhookURL,
		CallDelay:   cfg.CRMCallDelay,
		CallTimeout: cfg.CRMCallTimeout,
		RetryBase:   cfg.CRMRetryBase,
		MaxAttempts: cfg.CRMMaxAttempts,
	})

	resolver := crm.NewResolver(client, cfg.RetailCompanyID)
	fanout := crm.NewFanOut(client)

	var notifier order.Notifier
	if m := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.MailTo); m != nil {
		notifier = m
	} else {
		log.Println("mail notifications disabled (SMTP is not configured)")
	}

	pipeline := order.NewPipeline(resolver, fanout, notifier)

	r := server.NewRouter(cfg, pipeline)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
