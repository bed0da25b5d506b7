package models

// RoleDefinition holds the keyword sets of one role
type RoleDefinition struct {
	Required []string `json:"required" yaml:"required"`
	Optional []string `json:"optional" yaml:"optional"`
}

// Role is a named RoleDefinition
type Role struct {
	Name string `json:"name"`
	RoleDefinition
}
