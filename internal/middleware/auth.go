package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	CustomerIDKey    contextKey = "customer_id"
	CustomerEmailKey contextKey = "customer_email"
)

// AuthMiddleware validates JWT tokens and extracts the customer claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := parts[1]

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			customerID, ok := claims["customer_id"].(string)
			if !ok {
				logger.Error("Missing customer_id in token claims")
				RespondError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			email, _ := claims["email"].(string)

			ctx := context.WithValue(r.Context(), CustomerIDKey, customerID)
			ctx = context.WithValue(ctx, CustomerEmailKey, email)

			logger.Debug("Customer authenticated",
				zap.String("customer_id", customerID),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCustomerID extracts the authenticated customer's id from the context
func GetCustomerID(ctx context.Context) (string, bool) {
	customerID, ok := ctx.Value(CustomerIDKey).(string)
	return customerID, ok
}

// GetCustomerEmail extracts the authenticated customer's email from the context
func GetCustomerEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(CustomerEmailKey).(string)
	return email, ok
}
