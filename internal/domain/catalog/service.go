package catalog

import (
	"errors"
	"time"
)

var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrCategoryNotFound = errors.New("service category not found")
	ErrCategoryTaken    = errors.New("service category name already used")
)

type Service struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Duration    int     `json:"duration"` // minutes
	Price       float64 `json:"price"`
	CategoryID  string  `json:"categoryId"`
	// populated from the category on reads
	CategoryName string    `json:"category,omitempty"`
	IsActive     bool      `json:"isActive"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ServiceCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateServiceRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Description string  `json:"description" binding:"omitempty,max=500"`
	Duration    int     `json:"duration" binding:"required,min=5,max=480"`
	Price       float64 `json:"price" binding:"gte=0"`
	CategoryID  string  `json:"category" binding:"required,uuid"`
	IsActive    *bool   `json:"isActive" binding:"omitempty"`
	Image       string  `json:"image" binding:"omitempty,max=500"`
}

// a full update payload, might switch to a patch which optionally provides
// means for partial updates.
type UpdateServiceRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Description string  `json:"description" binding:"omitempty,max=500"`
	Duration    int     `json:"duration" binding:"required,min=5,max=480"`
	Price       float64 `json:"price" binding:"gte=0"`
	CategoryID  string  `json:"category" binding:"required,uuid"`
	IsActive    *bool   `json:"isActive" binding:"omitempty"`
	Image       string  `json:"image" binding:"omitempty,max=500"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=2,max=50"`
}
