package util

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-mergegate/mergegate/internal/models"

	"github.com/gin-gonic/gin"
)

func TestGetIPFromContext(t *testing.T) {
	t.Run("plain context without IP", func(t *testing.T) {
		if ip := GetIPFromContext(context.Background()); ip != "" {
			t.Errorf("Expected empty IP, got %q", ip)
		}
	})

	t.Run("gin context uses ClientIP", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.RemoteAddr = "203.0.113.9:4321"

		if ip := GetIPFromContext(c); ip != "203.0.113.9" {
			t.Errorf("Expected 203.0.113.9, got %q", ip)
		}
	})
}

func TestGetUserFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("no user set", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		if user := GetUserFromContext(c); user != nil {
			t.Errorf("Expected nil user, got %v", user)
		}
	})

	t.Run("user set by auth middleware", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("user", &models.User{ID: "user-1", Role: "admin"})

		user := GetUserFromContext(c)
		if user == nil || user.ID != "user-1" {
			t.Errorf("Expected user-1, got %v", user)
		}
	})

	t.Run("non-gin context", func(t *testing.T) {
		if user := GetUserFromContext(context.Background()); user != nil {
			t.Errorf("Expected nil user, got %v", user)
		}
	})
}
