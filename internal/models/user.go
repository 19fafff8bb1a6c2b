package models

// UserRole represents the role of a user within the application
type UserRole string

const (
	RoleAdmin        UserRole = "ADMIN"
	RoleCollaborator UserRole = "COLABORADOR"
	RoleBasicUser    UserRole = "USUARIO_BASICO"
)

// User represents the user model in the database
type User struct {
	Base
	Email          string   `gorm:"uniqueIndex;not null" json:"email"`
	Password       string   `gorm:"not null" json:"-"`
	Name           string   `json:"name"`
	Role           UserRole `gorm:"not null;default:USUARIO_BASICO" json:"role"`
	OrganizationID uint     `gorm:"not null;index" json:"organization_id"`
	IsActive       bool     `gorm:"default:true" json:"is_active"`

	Organization Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Budgets      []Budget      `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
