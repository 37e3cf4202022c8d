package onward

import "github.com/Zwork101/onward/id"

// ID is the identifier type for Onward entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
