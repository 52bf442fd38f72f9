package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"marelle-logistics/config"
	"marelle-logistics/database"
	ipresolver "marelle-logistics/middleware/ip_resolver"
	requestid "marelle-logistics/middleware/request_id"
	"marelle-logistics/middleware/timer"
	httpapi "marelle-logistics/protocol/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system environment variables")
	}

	cfg := config.LoadConfig()
	log.Println("✅ ECPAY_STAGE_BASE_URL =", cfg.ECPay.StageBaseURL)
	log.Println("✅ ECPAY_PRODUCTION_BASE_URL =", cfg.ECPay.ProductionBaseURL)

	store, err := database.NewStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	app := httpapi.NewApp(cfg, store)
	mux := http.NewServeMux()
	app.RegisterRoutes(mux)

	handler := requestid.Middleware(ipresolver.Middleware(timer.Middleware(mux)))

	log.Printf("🚀 Server running on :%s\n", cfg.Port)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+cfg.Port, handler))
}
