package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	"eventsoft/controllers"
	"eventsoft/driver"
	"eventsoft/mailer"
	"eventsoft/models"
	"eventsoft/storage"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

var db *sql.DB

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}
	secret := os.Getenv("SECRET")
	if secret == "" {
		log.Fatal("SECRET variable is not set")
	}
	db = driver.ConnectDB()
	defer db.Close()

	store := storage.NewS3StoreFromEnv()
	sender := mailer.NewSMTPSenderFromEnv()
	dispatcher := mailer.NewDispatcher(sender, sender.From)

	authController := controllers.AuthController{Mail: sender, From: sender.From}
	eventController := controllers.EventController{Store: store}
	participationController := controllers.ParticipationController{Store: store, Mail: dispatcher}
	documentController := controllers.DocumentController{
		Source: controllers.NewSQLEventSource(db),
		Store:  store,
		Mail:   dispatcher,
	}
	certificateController := controllers.CertificateController{Mail: dispatcher}

	router := mux.NewRouter()

	router.HandleFunc("/signup", authController.Signup(db)).Methods("POST")
	router.HandleFunc("/login", authController.Login(db)).Methods("POST")
	router.HandleFunc("/getMe", authController.GetMe(db)).Methods("GET")
	router.HandleFunc("/forgot-password", authController.ForgotPassword(db)).Methods("POST")
	router.HandleFunc("/reset-password", authController.ResetPassword(db)).Methods("POST")

	router.HandleFunc("/events", eventController.GetEvents(db)).Methods("GET")
	router.HandleFunc("/events/create", eventController.CreateEvent(db)).Methods("POST")
	router.HandleFunc("/events/{id}", eventController.UpdateEvent(db)).Methods("PUT")
	router.HandleFunc("/events/{id}/status", eventController.UpdateEventStatus(db)).Methods("PUT")
	router.HandleFunc("/events/{id}", eventController.DeleteEvent(db)).Methods("DELETE")

	router.HandleFunc("/events/{id}/apply", participationController.Apply(db)).Methods("POST")
	router.HandleFunc("/events/{id}/confirm", participationController.Confirm(db)).Methods("POST")
	router.HandleFunc("/events/{id}/participations", participationController.ListByEvent(db)).Methods("GET")
	router.HandleFunc("/participations/{id}/status", participationController.UpdateStatus(db)).Methods("PUT")

	router.HandleFunc("/events/{id}/documents/{slot}", documentController.Upload()).Methods("POST")
	router.HandleFunc("/events/{id}/documents/informacion_tecnica",
		documentController.Download(models.SlotInformacionTecnica)).Methods("GET")
	router.HandleFunc("/events/{id}/documents/memorias",
		documentController.Download(models.SlotMemorias)).Methods("GET")
	router.HandleFunc("/events/{id}/documents/programacion",
		documentController.Download(models.SlotProgramacion)).Methods("GET")

	router.HandleFunc("/events/{id}/certificates/config", certificateController.SetConfig(db)).Methods("POST")
	router.HandleFunc("/events/{id}/certificates/config", certificateController.GetConfig(db)).Methods("GET")
	router.HandleFunc("/events/{id}/certificates/send", certificateController.Send(db)).Methods("POST")

	log.Println("Server started on port 8000")
	log.Fatal(http.ListenAndServe(":8000", router))
}
