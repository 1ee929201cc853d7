// Package models holds the organizational directory entities the tracking
// core consumes. Accounts, employees and offices are owned by collaborator
// systems; this service reads them to resolve identities and route
// notifications, and offers only minimal upkeep endpoints.
package models

import "github.com/google/uuid"

// Account is a login identity. EmployeeCode links the account to an employee
// record when the holder is on the payroll directory.
type Account struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Role         string
	EmployeeCode string
}

// Employee is a directory person. OfficeID is the single source of truth for
// office membership; offices never carry member lists of their own.
type Employee struct {
	ID           uuid.UUID
	Name         string
	EmployeeCode string
	Department   string
	OfficeID     *uuid.UUID
}

// Office is an organizational unit documents are routed between.
type Office struct {
	ID         uuid.UUID
	Name       string
	Department string
}
