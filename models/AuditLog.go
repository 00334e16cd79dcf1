package models

import "gorm.io/gorm"

type AuditLog struct {
	gorm.Model
	AdminUserID  uint   `json:"adminUserID" gorm:"index"`
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceID   uint   `json:"resourceID"`
	BeforeJSON   string `json:"beforeJSON" gorm:"type:text"`
	AfterJSON    string `json:"afterJSON" gorm:"type:text"`
	IPAddress    string `json:"ipAddress"`
}
