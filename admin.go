// admin.go - privacy-conscious visitor tracking and the admin dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cristalhq/jwt/v5"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/events"
	"github.com/Zachkp/portfolio/internal/visits"
)

const (
	adminCookie   = "admin_token"
	adminTokenTTL = 24 * time.Hour
	adminIssuer   = "portfolio-admin"
)

// adminAuth checks admin credentials and issues signed session tokens.
type adminAuth struct {
	username string
	password string
	signer   jwt.Signer
	verifier jwt.Verifier
	now      func() time.Time
}

func newAdminAuth(cfg config.AdminConfig) (*adminAuth, error) {
	secret := cfg.Secret
	if secret == "" {
		// Tokens then only survive until the next restart.
		generated, err := generateToken()
		if err != nil {
			return nil, err
		}
		secret = generated
	}

	password := cfg.Password
	if password == "" {
		generated, err := generateToken()
		if err != nil {
			return nil, err
		}
		password = generated[:20]
		slog.Warn("ADMIN_PASSWORD not set, generated a one-off admin password")
		if gin.Mode() == gin.DebugMode {
			slog.Info("admin password (dev only)", "password", password)
		}
	}

	signer, err := jwt.NewSignerHS(jwt.HS256, []byte(secret))
	if err != nil {
		return nil, err
	}
	verifier, err := jwt.NewVerifierHS(jwt.HS256, []byte(secret))
	if err != nil {
		return nil, err
	}

	return &adminAuth{
		username: cfg.Username,
		password: password,
		signer:   signer,
		verifier: verifier,
		now:      time.Now,
	}, nil
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (a *adminAuth) validCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

// issue signs a token for the admin user.
func (a *adminAuth) issue() (string, error) {
	now := a.now().UTC()
	token, err := jwt.NewBuilder(a.signer).Build(&jwt.RegisteredClaims{
		Subject:   a.username,
		Issuer:    adminIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
	})
	if err != nil {
		return "", err
	}
	return token.String(), nil
}

// check verifies the signature, lifetime and subject of raw.
func (a *adminAuth) check(raw string) error {
	var claims jwt.RegisteredClaims
	if err := jwt.ParseClaims([]byte(raw), a.verifier, &claims); err != nil {
		return err
	}
	if !claims.IsValidAt(a.now()) {
		return errors.New("admin token expired")
	}
	if claims.Issuer != adminIssuer || claims.Subject != a.username {
		return errors.New("admin token not issued for this user")
	}
	return nil
}

// Middleware to check admin authentication
func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || a.check(token) != nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Privacy-conscious visitor tracking middleware. Only full page views count.
func (s *site) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet ||
			c.GetHeader("HX-Request") == "true" ||
			strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/favicon") ||
			strings.HasPrefix(path, "/privacy") ||
			path == "/metrics" || path == "/healthz" {
			c.Next()
			return
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		// Track visitor with hashed IP in background
		go s.trackVisitor(c.ClientIP(), c.GetHeader("User-Agent"), path)
		c.Next()
	}
}

func (s *site) trackVisitor(ip, userAgent, path string) {
	if err := s.visits.Record(context.Background(), ip, userAgent, path); err != nil {
		slog.Error("error recording visitor", "error", err)
	}
}

// cleanupOldVisitorData drops visitor records past the retention window.
func (s *site) cleanupOldVisitorData(ctx context.Context) {
	removed, err := s.visits.Cleanup(ctx, s.retention)
	if err != nil {
		slog.Error("error cleaning up old visitor data", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("privacy cleanup removed old visitor records", "removed", removed)
	}
}

// contactLog stores contact outcomes next to the visitor data.
type contactLog struct {
	store *visits.Store
}

func (l contactLog) PublishContact(ctx context.Context, ev events.ContactSubmitted) error {
	return l.store.RecordContact(ctx, ev.Status)
}

func (contactLog) Close() error { return nil }

// Setup all admin routes
func setupAdminRoutes(r *gin.Engine, s *site) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":     "Privacy Policy",
			"retention": s.retention.String(),
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if !s.admin.validCredentials(c.PostForm("username"), c.PostForm("password")) {
			slog.Warn("failed admin login attempt", "visitor", s.visits.HashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		token, err := s.admin.issue()
		if err != nil {
			slog.Error("issuing admin token", "error", err)
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{
				"error": "Login is unavailable right now.",
			})
			return
		}
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, token, int(adminTokenTTL/time.Second), "/admin", "", false, true)
		slog.Info("admin login successful", "visitor", s.visits.HashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(s.admin.middleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.visits.Stats(c.Request.Context())
		if err != nil {
			slog.Error("error loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	// View visitors
	adminGroup.GET("/visitors", func(c *gin.Context) {
		recent, err := s.visits.Recent(c.Request.Context(), 200)
		if err != nil {
			slog.Error("error loading visitors", "error", err)
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": recent,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.visits.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Statistics export for backups or analysis
	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.visits.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		s.cleanupOldVisitorData(c.Request.Context())
		if c.GetHeader("Accept") == "application/json" {
			c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup finished"})
			return
		}
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})
}
