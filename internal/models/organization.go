package models

// Organization groups users for shared spend visibility. Budget status is
// computed against the expense activity of the whole organization that the
// budget owner belongs to, not just the owner's own transactions.
type Organization struct {
	Base
	Name     string `gorm:"uniqueIndex;not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Users []User `gorm:"foreignKey:OrganizationID" json:"users,omitempty"`
}
