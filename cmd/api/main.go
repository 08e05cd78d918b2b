package main

import (
	"log"
	"os"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/events"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/mail"
	"app/internal/infra/payment"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envはローカル開発用。無ければ環境変数だけで動く
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("godotenv: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//イベントハブ（注文変更のファンアウト）
	hub := events.NewHub()

	//外部サービス
	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	mailer := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.ContactTo)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(userRepo, cfg.JWTSecret, 15*time.Minute)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	orderUC := usecase.NewOrderUsecase(txManager, hub, gateway)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, hub)
	paymentUC := usecase.NewPaymentUsecase(gateway, cfg.PaymentCurrency)
	contactUC := usecase.NewContactUsecase(mailer)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Order:        handler.NewOrderHandler(orderUC, paymentUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, hub),
		AdminAudit:   handler.NewAdminAuditLogHandler(auditUC),
		Contact:      handler.NewContactHandler(contactUC),
	}

	//Server起動
	if err := server.Start(cfg, handlers); err != nil {
		log.Fatalf("server: %v", err)
	}
}
