// Package cardmodel is the runtime wrapper around one card instance.
//
// A Model pairs a compiled card with instance data and moves through two
// states:
//
//	Created --Save--> Loaded --Save--> Loaded (refreshed)
//	                  Loaded --Editable--> Loaded (new model, Original = old)
//	                  Loaded --AdoptIntoRealm--> Created (parent = old URL)
//
// Reads deserialize the server's attributes once, converting primitive
// values through their card's serializer. Writes go through Setter, a path
// value that addresses one spot in the data bag. Synchronous computed fields
// are evaluated on read from their HCL expression.
//
// A Model is owned by one editing session and is not safe for concurrent
// mutation.
package cardmodel
