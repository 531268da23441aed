/*
Copyright 2026 NexusBank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexusbank/nexus"
	"github.com/nexusbank/nexus/api/middleware"
	"github.com/nexusbank/nexus/config"
	"github.com/nexusbank/nexus/internal/apierror"
)

type Api struct {
	nexus  *nexus.Nexus
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	user := router.Group("/api/user", middleware.Authenticate())
	user.POST("/register", a.Register)
	user.GET("/dashboard", a.GetDashboard)
	user.GET("/header", a.GetHeader)
	user.GET("/profile", a.GetProfile)
	user.GET("/stats", a.GetStats)
	user.POST("/deposit", a.RequestDeposit)
	user.POST("/submit", a.SubmitKYC)
	user.GET("/me", a.GetKYCStatus)

	txn := router.Group("/api/transaction")
	txn.GET("/status/:code", a.TrackStatus)
	authed := txn.Group("", middleware.Authenticate())
	authed.POST("/withdraw", a.RequestWithdrawal)
	authed.POST("/swap", a.Swap)
	authed.POST("/send", a.Send)
	authed.POST("/loan", a.RequestLoan)
	authed.GET("/history", a.GetHistory)

	admin := router.Group("/api/admin", middleware.Authenticate(), middleware.RequireAdmin())
	admin.GET("/dashboard", a.GetAdminDashboard)
	admin.GET("/deposits/pending", a.PendingDeposits)
	admin.POST("/deposits/:id/approve", a.ApproveDeposit)
	admin.POST("/deposits/:id/reject", a.RejectDeposit)
	admin.GET("/withdrawals/pending", a.PendingWithdrawals)
	admin.POST("/withdrawals/:id/approve", a.ApproveWithdrawal)
	admin.POST("/withdrawals/:id/reject", a.RejectWithdrawal)
	admin.GET("/kyc/pending", a.PendingKYC)
	admin.POST("/kyc/:uid/approve", a.ApproveKYC)
	admin.POST("/kyc/:uid/reject", a.RejectKYC)
	admin.GET("/loans/pending", a.PendingLoans)
	admin.POST("/loans/:id/approve", a.ApproveLoan)
	admin.POST("/loans/:id/reject", a.RejectLoan)

	return a.router
}

func NewAPI(n *nexus.Nexus) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/status", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{nexus: n, router: r}
}

// caller extracts the verified identity set by the auth middleware.
func (a Api) caller(c *gin.Context) nexus.Caller {
	mc, _ := middleware.GetCaller(c)
	return nexus.Caller{UID: mc.UID, Admin: mc.Admin}
}

// respondError translates service errors into HTTP responses. Internal
// errors are masked; everything else keeps its message.
func respondError(c *gin.Context, err error) {
	status := apierror.MapErrorToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		c.JSON(status, gin.H{"error": apiErr.Message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
