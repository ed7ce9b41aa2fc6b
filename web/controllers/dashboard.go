package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"upi-gateway/web/db"
)

// Stats is the admin dashboard aggregate: user/order totals, an
// order-count breakdown by status, and host utilization so a single
// screen shows whether the box itself is struggling.
func Stats(c *gin.Context) {
	var totalUsers, totalOrders int64
	if err := db.DB.Model(&db.User{}).Count(&totalUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	if err := db.DB.Model(&db.Order{}).Count(&totalOrders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	var rows []struct {
		Status db.OrderStatus
		Count  int64
	}
	if err := db.DB.Model(&db.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	byStatus := make(map[db.OrderStatus]int64, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row.Count
	}

	system := gin.H{}
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		system["cpu_percent"] = percent[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["mem_percent"] = vm.UsedPercent
	}

	c.JSON(http.StatusOK, gin.H{
		"totalUsers":     totalUsers,
		"totalOrders":    totalOrders,
		"ordersByStatus": byStatus,
		"system":         system,
	})
}
