package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/dashbot/internal/infra"
	"github.com/xela07ax/dashbot/internal/repository/postgres"
)

// dashbotctl — административная утилита дашборда. Единственная операция
// на сегодня: завести или обновить учетку оператора (браузерный периметр
// логинится только по строке из users).
func main() {
	username := flag.String("username", "", "operator login")
	password := flag.String("password", "", "operator password (stored as bcrypt hash)")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("usage: dashbotctl -username <name> -password <secret>")
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := postgres.NewStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to init postgres: %v", err)
	}
	defer store.Close()

	// Утилита может запускаться раньше первого старта сервера
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	if err := store.UpsertUser(ctx, *username, string(hash)); err != nil {
		log.Fatalf("failed to upsert user: %v", err)
	}
	fmt.Printf("user %q provisioned\n", *username)
}
