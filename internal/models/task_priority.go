package models

// TaskPriority is a lookup row; tasks reference it by ID and only active
// rows may be selected.
type TaskPriority struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `gorm:"type:varchar(50);not null" json:"name"`
	Color        string `gorm:"type:varchar(20)" json:"color"`
	DisplayOrder int    `gorm:"not null" json:"display_order"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
}

const (
	PriorityLow    uint = 1
	PriorityMedium uint = 2
	PriorityHigh   uint = 3
	PriorityUrgent uint = 4
)

// DefaultTaskPriorities is the seed data for the priority lookup.
func DefaultTaskPriorities() []TaskPriority {
	return []TaskPriority{
		{ID: PriorityLow, Name: "Low", Color: "#6c757d", DisplayOrder: 1, IsActive: true},
		{ID: PriorityMedium, Name: "Medium", Color: "#0dcaf0", DisplayOrder: 2, IsActive: true},
		{ID: PriorityHigh, Name: "High", Color: "#ffc107", DisplayOrder: 3, IsActive: true},
		{ID: PriorityUrgent, Name: "Urgent", Color: "#dc3545", DisplayOrder: 4, IsActive: true},
	}
}
