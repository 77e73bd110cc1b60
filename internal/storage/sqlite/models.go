package sqlite

import "time"

type PropertyModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	Kind      string `gorm:"not null;default:'enum'"`
	CreatedAt time.Time
}

func (PropertyModel) TableName() string { return "properties" }

type PropertyValueModel struct {
	ID         uint   `gorm:"primaryKey"`
	PropertyID uint   `gorm:"not null;index:idx_property_label,unique"`
	Label      string `gorm:"not null;index:idx_property_label,unique"`
	CreatedAt  time.Time
}

func (PropertyValueModel) TableName() string { return "property_values" }

type ClassModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (ClassModel) TableName() string { return "classes" }

// ClassPropertyModel holds the property-level toggle and the numeric range
type ClassPropertyModel struct {
	ID         uint `gorm:"primaryKey"`
	ClassID    uint `gorm:"not null;index:idx_class_property,unique"`
	PropertyID uint `gorm:"not null;index:idx_class_property,unique"`
	State      int  `gorm:"not null;default:0"`
	RangeMin   *float64
	RangeMax   *float64
	UpdatedAt  time.Time
}

func (ClassPropertyModel) TableName() string { return "class_properties" }

type ClassPropertyValueModel struct {
	ID        uint `gorm:"primaryKey"`
	ClassID   uint `gorm:"not null;index:idx_class_value,unique"`
	ValueID   uint `gorm:"not null;index:idx_class_value,unique"`
	State     int  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (ClassPropertyValueModel) TableName() string { return "class_property_values" }
