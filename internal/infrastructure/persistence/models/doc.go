// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of GORM tags; each model converts to and from its
// entity with ToDomain / FromDomain.
//
// Monetary columns hold integer minor units (cents). Quantities are stored as
// unconstrained numerics so fractional amounts survive a round trip.
package models
