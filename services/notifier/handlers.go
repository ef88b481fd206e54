package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

// handleGetPushStatus reports delivery counters and the breaker state.
func handleGetPushStatus(client *PushClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.OKResponse(c, "Push status retrieved successfully", client.GetStatus())
	}
}

// handleResetPush closes the push circuit breaker.
func handleResetPush(client *PushClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		client.Reset()
		utils.OKResponse(c, "Push circuit reset", nil)
	}
}
