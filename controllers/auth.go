package controllers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"eventsoft/mailer"
	"eventsoft/models"
	"eventsoft/utils"

	"github.com/google/uuid"
)

type AuthController struct {
	Mail mailer.Sender
	From string
}

type credentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Document  string `json:"document"`
	Role      string `json:"role"`
}

func (ac *AuthController) Signup(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Email and password are required"})
			return
		}
		if body.Role == "" {
			body.Role = models.RoleAttendee
		}
		if body.Role != models.RoleAdmin && body.Role != models.RoleEvaluator && body.Role != models.RoleAttendee {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid role. Allowed values are: admin, evaluator, attendee"})
			return
		}

		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", body.Email).Scan(&exists)
		if err != nil {
			log.Println("Error checking existing user:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}
		if exists {
			utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Email already registered"})
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			log.Println("Error hashing password:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		result, err := db.Exec(
			"INSERT INTO users (email, password, first_name, last_name, document, role, created_at) VALUES (?, ?, ?, ?, ?, ?, NOW())",
			body.Email, hash, body.FirstName, body.LastName, body.Document, body.Role,
		)
		if err != nil {
			log.Println("Error inserting user:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to create user"})
			return
		}
		userID, _ := result.LastInsertId()

		utils.ResponseJSON(w, map[string]interface{}{
			"message": "User created successfully",
			"user_id": userID,
		})
	}
}

func (ac *AuthController) Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}

		user, err := models.GetUserByEmail(db, strings.TrimSpace(strings.ToLower(body.Email)))
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Invalid credentials"})
			return
		}
		if err != nil {
			log.Println("Error fetching user:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		if !utils.ComparePasswords(user.Password, []byte(body.Password)) {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Invalid credentials"})
			return
		}

		accessToken, err := utils.GenerateToken(user, 24*time.Hour)
		if err != nil {
			log.Println("Error generating token:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}
		refreshToken, err := utils.GenerateRefreshToken(user, 7*24*time.Hour)
		if err != nil {
			log.Println("Error generating refresh token:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		utils.ResponseJSON(w, map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"role":          user.Role,
		})
	}
}

func (ac *AuthController) GetMe(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := utils.VerifyToken(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Authentication required"})
			return
		}

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			log.Println("Error fetching user:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error retrieving user information"})
			return
		}
		user.Password = ""
		utils.ResponseJSON(w, user)
	}
}

func (ac *AuthController) ForgotPassword(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}

		user, err := models.GetUserByEmail(db, strings.TrimSpace(strings.ToLower(body.Email)))
		if err == sql.ErrNoRows {
			// Do not reveal whether the address is registered.
			utils.ResponseJSON(w, map[string]string{"message": "If the email is registered, a reset link was sent"})
			return
		}
		if err != nil {
			log.Println("Error fetching user:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		token := uuid.New().String()
		expires := time.Now().Add(1 * time.Hour).Format("2006-01-02 15:04:05")
		_, err = db.Exec(
			"INSERT INTO password_resets (email, token, expires_at) VALUES (?, ?, ?)",
			user.Email, token, expires,
		)
		if err != nil {
			log.Println("Error storing reset token:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		msg := mailer.BuildMessage(ac.From, user.Email, "Password reset",
			"Use this token to reset your password: "+token, nil)
		if err := ac.Mail.Send(user.Email, msg); err != nil {
			log.Printf("Error sending reset email to %s: %v", user.Email, err)
		}

		utils.ResponseJSON(w, map[string]string{"message": "If the email is registered, a reset link was sent"})
	}
}

func (ac *AuthController) ResetPassword(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if body.Token == "" || body.Password == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Token and password are required"})
			return
		}

		var email, expiresStr string
		err := db.QueryRow("SELECT email, expires_at FROM password_resets WHERE token = ?", body.Token).Scan(&email, &expiresStr)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid or expired token"})
			return
		}
		if err != nil {
			log.Println("Error fetching reset token:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}
		expires, err := time.Parse("2006-01-02 15:04:05", expiresStr)
		if err != nil || time.Now().After(expires) {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid or expired token"})
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			log.Println("Error hashing password:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Server error"})
			return
		}

		if _, err := db.Exec("UPDATE users SET password = ? WHERE email = ?", hash, email); err != nil {
			log.Println("Error updating password:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Failed to reset password"})
			return
		}
		if _, err := db.Exec("DELETE FROM password_resets WHERE token = ?", body.Token); err != nil {
			log.Println("Error deleting reset token:", err)
		}

		utils.ResponseJSON(w, map[string]string{"message": "Password updated successfully"})
	}
}
